package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"gitee.com/flycash/alert-engine/internal/errs"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	"github.com/alibabacloud-go/tea/tea"
)

var _ Client = (*AliyunSMS)(nil)

// AliyunSMS 阿里云短信实现
type AliyunSMS struct {
	client *dysmsapi.Client
}

// NewAliyunSMS 创建阿里云短信实例
func NewAliyunSMS(regionID, accessKeyID, accessKeySecret string) (*AliyunSMS, error) {
	config := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
		RegionId:        tea.String(regionID),
		Endpoint:        tea.String("dysmsapi.aliyuncs.com"),
	}

	client, err := dysmsapi.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &AliyunSMS{client: client}, nil
}

func (a *AliyunSMS) Send(req SendReq) (SendResp, error) {
	if len(req.PhoneNumbers) == 0 {
		return SendResp{}, fmt.Errorf("%w: 手机号码不能为空", errs.ErrInvalidParameter)
	}

	templateParam, err := json.Marshal(map[string]string{"content": req.Content})
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", errs.ErrInvalidParameter, err)
	}

	request := &dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(strings.Join(req.PhoneNumbers, ",")),
		SignName:      tea.String(req.SignName),
		TemplateCode:  tea.String(req.TemplateID),
		TemplateParam: tea.String(string(templateParam)),
	}

	response, err := a.client.SendSms(request)
	if err != nil {
		// SDK层错误基本是网络或签名问题
		return SendResp{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}

	if response.Body == nil || response.Body.Code == nil {
		return SendResp{}, fmt.Errorf("%w: 响应异常", errs.ErrProviderUnavailable)
	}

	code := *response.Body.Code
	if !strings.EqualFold(code, OK) {
		message := ""
		if response.Body.Message != nil {
			message = *response.Body.Message
		}
		return SendResp{}, fmt.Errorf("%w: Code = %s, Message = %s", classifyAliyunCode(code), code, message)
	}

	result := SendResp{
		PhoneNumbers: make(map[string]SendRespStatus),
	}
	if response.Body.RequestId != nil {
		result.RequestID = *response.Body.RequestId
	}
	// 阿里云发送接口不返回每个手机号的状态，只返回整体状态
	for _, phone := range req.PhoneNumbers {
		cleanPhone := strings.TrimPrefix(phone, "+86")
		result.PhoneNumbers[cleanPhone] = SendRespStatus{Code: code}
	}
	return result, nil
}

// classifyAliyunCode 把阿里云错误码映射为统一错误
func classifyAliyunCode(code string) error {
	switch code {
	case "isv.ACCOUNT_NOT_EXISTS", "isv.ACCOUNT_ABNORMAL",
		"InvalidAccessKeyId.NotFound", "SignatureDoesNotMatch":
		return errs.ErrAuthentication
	case "isv.MOBILE_NUMBER_ILLEGAL":
		return errs.ErrInvalidRecipient
	case "isv.BUSINESS_LIMIT_CONTROL", "isv.DAY_LIMIT_CONTROL", "isv.AMOUNT_NOT_ENOUGH":
		return errs.ErrQuotaExceeded
	default:
		return errs.ErrProviderUnavailable
	}
}
