package validation

// Field is a validated text input. An untouched field shows no error even
// when its value would fail validation; the error appears only after the
// first edit.
type Field struct {
	Value   string `json:"value"`
	Touched bool   `json:"touched"`
	Error   string `json:"error,omitempty"`
}

// Seed sets the value without marking the field touched.
func (f *Field) Seed(value string) {
	f.Value = value
	f.Touched = false
	f.Error = ""
}

// Edit records a user edit and refreshes the companion error state,
// clearing it on success.
func (f *Field) Edit(value string, validate Validator) Result {
	f.Value = value
	f.Touched = true
	res := validate(value)
	if res.Valid {
		f.Error = ""
	} else {
		f.Error = res.Message
	}
	return res
}

// Invalid reports whether the field currently shows an error.
func (f Field) Invalid() bool {
	return f.Error != ""
}
