package ocr

// Result is the outcome of one recognition request. Err == nil marks
// success, in which case Latex is non-empty.
type Result struct {
	Request Request
	Latex   string
	Err     *Error
}

// OK reports whether recognition succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Source returns the request's source descriptor.
func (r Result) Source() string {
	if r.Request == nil {
		return ""
	}
	return r.Request.Source()
}

// String renders a one-line summary for logs.
func (r Result) String() string {
	if r.OK() {
		return "LaTeX-OCR 成功: " + r.Latex
	}
	return "LaTeX-OCR 失敗: " + r.Err.Message
}

// Envelope is the JSON shape printed for a recognition result.
type Envelope struct {
	Success     bool   `json:"success"`
	LatexCode   string `json:"latex_code,omitempty"`
	Error       string `json:"error,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
	ImagePath   string `json:"image_path,omitempty"`
	ImageSource string `json:"image_source,omitempty"`
}

// Envelope converts the result to its wire shape. Successful results
// always carry their source; failed file requests carry the path only once
// the file was found.
func (r Result) Envelope() Envelope {
	var env Envelope
	if r.OK() {
		env = Envelope{Success: true, LatexCode: r.Latex}
	} else {
		env = r.Err.Envelope()
	}

	switch req := r.Request.(type) {
	case FileRequest:
		if r.OK() || r.Err.Kind == ErrRecognition || r.Err.Kind == ErrCorrupt {
			env.ImagePath = req.Path
		}
	case Base64Request:
		if r.OK() {
			env.ImageSource = SourceBase64
		}
	}
	return env
}

func succeeded(req Request, latex string) Result {
	return Result{Request: req, Latex: latex}
}

func failed(req Request, err *Error) Result {
	return Result{Request: req, Err: err}
}
