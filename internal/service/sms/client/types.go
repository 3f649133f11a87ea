package client

// SendReq 发送请求。正文已经由模板引擎渲染完成，
// 通过厂商侧通用模板的 content 变量透传。
type SendReq struct {
	PhoneNumbers []string
	SignName     string
	TemplateID   string
	Content      string
}

// SendRespStatus 单个号码的发送状态
type SendRespStatus struct {
	Code    string
	Message string
}

// SendResp 发送响应
type SendResp struct {
	RequestID    string
	PhoneNumbers map[string]SendRespStatus
}

// Client 短信厂商客户端接口。
// 实现负责把厂商侧错误码映射为 errs 中的统一错误，
// 上层据此决定是跳过实体、换供应商还是中断整轮执行。
type Client interface {
	Send(req SendReq) (SendResp, error)
}

// OK 厂商统一的成功码（阿里云 OK / 腾讯云 Ok，比较时忽略大小写）
const OK = "OK"
