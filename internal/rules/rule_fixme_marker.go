package rules

func init() {
	registerBuiltin("FIXME-MARKER", false, func(Settings) Rule {
		return MarkerRule("FIXME-MARKER", "Unresolved FIXME marker.", "FIXME")
	})
}
