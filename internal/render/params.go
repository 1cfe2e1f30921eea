package render

// ParamValues extracts a numeric parameter list from whatever shape the
// caller has on hand: an in-memory decoded array, or the serialized form
// stored in a param_json column. Anything else yields an empty list.
func ParamValues(raw any) []float64 {
	switch t := raw.(type) {
	case nil:
		return nil
	case string:
		return ParamsFromJSON(t)
	case []any:
		return Params(t)
	case []float64:
		return t
	}
	return nil
}

// RenderAny is Render with lazy parameter extraction: an empty parameter
// list returns the template verbatim, placeholders intact.
func RenderAny(template string, raw any) string {
	params := ParamValues(raw)
	if len(params) == 0 {
		return template
	}
	return Render(template, params)
}
