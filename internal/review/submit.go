package review

import "context"

// Submit sends req and records the answer in h. Both success and error
// responses are recorded; a request that never produced a response is not.
func Submit(ctx context.Context, c *Client, h *History, req Request) (Result, error) {
	res, err := c.Analyze(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if h != nil {
		if _, err := h.Add(req.Diff, res.Text); err != nil {
			return res, err
		}
	}
	return res, nil
}
