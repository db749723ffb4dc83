package response

// 非业务错误时返回给调用方的固定文案
const (
	MsgInternal     = "Internal server error"
	MsgRouteMissing = "Route not found"
	MsgTimeout      = "Request timeout"
	MsgBusy         = "Server busy"
	MsgBodyTooLarge = "Request body too large"
	MsgInvalidJSON  = "Invalid JSON body"
	MsgInvalidID    = "Invalid user id"
)
