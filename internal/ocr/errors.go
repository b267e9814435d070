package ocr

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrImport      = errors.New("model library import failed")
	ErrInit        = errors.New("model initialization failed")
	ErrNotFound    = errors.New("image file not found")
	ErrCorrupt     = errors.New("image file is not a decodable image")
	ErrDecode      = errors.New("image payload could not be decoded")
	ErrRecognition = errors.New("recognition failed")
	ErrUsage       = errors.New("required argument missing")
	ErrUnexpected  = errors.New("unexpected failure")
)

// Hints attached to errors that have a known remedy.
const (
	HintImport = "請確保已正確安裝 LaTeX-OCR 相關依賴"
	HintInit   = "請檢查模型檔案是否存在且完整"
)

// Error is a recognition failure with a caller-facing message.
type Error struct {
	Kind    error
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Envelope renders the error alone, for failures that precede any request.
func (e *Error) Envelope() Envelope {
	return Envelope{Success: false, Error: e.Message, Suggestion: e.Hint}
}

func importError(cause error) *Error {
	return &Error{
		Kind:    ErrImport,
		Message: fmt.Sprintf("LaTeX-OCR 模組導入失敗: %v", cause),
		Hint:    HintImport,
		Err:     cause,
	}
}

func initError(cause error) *Error {
	return &Error{
		Kind:    ErrInit,
		Message: fmt.Sprintf("LaTeX-OCR 模型初始化失敗: %v", cause),
		Hint:    HintInit,
		Err:     cause,
	}
}

func notFound(path string, cause error) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("圖片檔案不存在: %s", path),
		Err:     cause,
	}
}

func corruptImage(path string, cause error) *Error {
	return &Error{
		Kind:    ErrCorrupt,
		Message: fmt.Sprintf("圖片檔案無法解析: %s: %v", path, cause),
		Err:     cause,
	}
}

func decodeError(cause error) *Error {
	return &Error{
		Kind:    ErrDecode,
		Message: fmt.Sprintf("處理 Base64 圖片時發生錯誤: %v", cause),
		Err:     cause,
	}
}

func recognitionError(req Request, cause error) *Error {
	msg := fmt.Sprintf("處理圖片時發生錯誤: %v", cause)
	if _, ok := req.(Base64Request); ok {
		msg = fmt.Sprintf("處理 Base64 圖片時發生錯誤: %v", cause)
	}
	return &Error{Kind: ErrRecognition, Message: msg, Err: cause}
}

// MissingImagePath is reported when process_file has no --image_path.
func MissingImagePath() *Error {
	return &Error{Kind: ErrUsage, Message: "未指定圖片檔案路徑"}
}

// MissingBase64Data is reported when process_base64 has no --base64_data.
func MissingBase64Data() *Error {
	return &Error{Kind: ErrUsage, Message: "未指定 Base64 圖片數據"}
}

// Unexpected converts a recovered panic value or stray error into an Error.
func Unexpected(v any) *Error {
	cause, ok := v.(error)
	if !ok {
		cause = fmt.Errorf("%v", v)
	}
	return &Error{
		Kind:    ErrUnexpected,
		Message: fmt.Sprintf("執行過程中發生未預期的錯誤: %v", cause),
		Err:     cause,
	}
}
