package httpx

// Notifier receives progress and status events during a fetch. Events fire
// per hop, so a redirected fetch reports Connect once per connection.
type Notifier interface {
	Connect()
	AuthRequired()
	MimeType(value string)
	FileSize(size int64, headerLine string)
	Redirected(location string)
	AuthResult(statusLine string, code int)
	Failure(statusLine string, code int)
	ProgressInit(size int64) // size is 0 when the response has no Content-Length
	Progress(n int64)
}

// NopNotifier ignores every event.
type NopNotifier struct{}

func (NopNotifier) Connect()               {}
func (NopNotifier) AuthRequired()          {}
func (NopNotifier) MimeType(string)        {}
func (NopNotifier) FileSize(int64, string) {}
func (NopNotifier) Redirected(string)      {}
func (NopNotifier) AuthResult(string, int) {}
func (NopNotifier) Failure(string, int)    {}
func (NopNotifier) ProgressInit(int64)     {}
func (NopNotifier) Progress(int64)         {}
