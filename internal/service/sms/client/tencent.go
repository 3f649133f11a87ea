package client

import (
	"errors"
	"fmt"
	"strings"

	"gitee.com/flycash/alert-engine/internal/errs"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	terrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tsms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

var _ Client = (*TencentCloudSMS)(nil)

// TencentCloudSMS 腾讯云短信实现
type TencentCloudSMS struct {
	client *tsms.Client
	appID  string
}

// NewTencentCloudSMS 创建腾讯云短信实例
func NewTencentCloudSMS(regionID, secretID, secretKey, appID string) (*TencentCloudSMS, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	client, err := tsms.NewClient(credential, regionID, cpf)
	if err != nil {
		return nil, err
	}
	return &TencentCloudSMS{client: client, appID: appID}, nil
}

func (t *TencentCloudSMS) Send(req SendReq) (SendResp, error) {
	if len(req.PhoneNumbers) == 0 {
		return SendResp{}, fmt.Errorf("%w: 手机号码不能为空", errs.ErrInvalidParameter)
	}

	request := tsms.NewSendSmsRequest()
	request.SmsSdkAppId = common.StringPtr(t.appID)
	request.SignName = common.StringPtr(req.SignName)
	request.TemplateId = common.StringPtr(req.TemplateID)
	// 通用模板只有一个正文变量
	request.TemplateParamSet = common.StringPtrs([]string{req.Content})
	request.PhoneNumberSet = common.StringPtrs(req.PhoneNumbers)

	response, err := t.client.SendSms(request)
	if err != nil {
		var sdkErr *terrors.TencentCloudSDKError
		if errors.As(err, &sdkErr) {
			return SendResp{}, fmt.Errorf("%w: Code = %s, Message = %s",
				classifyTencentCode(sdkErr.Code), sdkErr.Code, sdkErr.Message)
		}
		return SendResp{}, fmt.Errorf("%w: %w", errs.ErrProviderUnavailable, err)
	}

	if response.Response == nil {
		return SendResp{}, fmt.Errorf("%w: 响应异常", errs.ErrProviderUnavailable)
	}

	result := SendResp{
		PhoneNumbers: make(map[string]SendRespStatus),
	}
	if response.Response.RequestId != nil {
		result.RequestID = *response.Response.RequestId
	}
	for _, status := range response.Response.SendStatusSet {
		if status == nil || status.PhoneNumber == nil {
			continue
		}
		code, message := "", ""
		if status.Code != nil {
			code = *status.Code
		}
		if status.Message != nil {
			message = *status.Message
		}
		if !strings.EqualFold(code, OK) {
			return SendResp{}, fmt.Errorf("%w: Code = %s, Message = %s", classifyTencentCode(code), code, message)
		}
		result.PhoneNumbers[*status.PhoneNumber] = SendRespStatus{Code: code, Message: message}
	}
	return result, nil
}

// classifyTencentCode 把腾讯云错误码映射为统一错误
func classifyTencentCode(code string) error {
	switch {
	case strings.HasPrefix(code, "AuthFailure"),
		code == "FailedOperation.SignatureIncorrectOrUnapproved",
		code == "UnauthorizedOperation.SmsSdkAppIdVerifyFail":
		return errs.ErrAuthentication
	case code == "InvalidParameterValue.IncorrectPhoneNumber":
		return errs.ErrInvalidRecipient
	case strings.HasPrefix(code, "LimitExceeded"),
		code == "FailedOperation.InsufficientBalanceInSmsPackage":
		return errs.ErrQuotaExceeded
	default:
		return errs.ErrProviderUnavailable
	}
}
