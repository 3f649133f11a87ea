//go:build unit

package client

import (
	"testing"

	"gitee.com/flycash/alert-engine/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestClassifyAliyunCode(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		code string
		want error
	}{
		{code: "isv.ACCOUNT_NOT_EXISTS", want: errs.ErrAuthentication},
		{code: "isv.ACCOUNT_ABNORMAL", want: errs.ErrAuthentication},
		{code: "InvalidAccessKeyId.NotFound", want: errs.ErrAuthentication},
		{code: "SignatureDoesNotMatch", want: errs.ErrAuthentication},
		{code: "isv.MOBILE_NUMBER_ILLEGAL", want: errs.ErrInvalidRecipient},
		{code: "isv.BUSINESS_LIMIT_CONTROL", want: errs.ErrQuotaExceeded},
		{code: "isv.DAY_LIMIT_CONTROL", want: errs.ErrQuotaExceeded},
		{code: "isv.AMOUNT_NOT_ENOUGH", want: errs.ErrQuotaExceeded},
		// 认不出来的错误码一律归为临时不可用，上层重试一次
		{code: "isv.RAM_PERMISSION_DENY", want: errs.ErrProviderUnavailable},
		{code: "", want: errs.ErrProviderUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, classifyAliyunCode(tc.code), tc.want)
		})
	}
}

func TestClassifyTencentCode(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		code string
		want error
	}{
		{code: "AuthFailure.SignatureFailure", want: errs.ErrAuthentication},
		{code: "AuthFailure.SecretIdNotFound", want: errs.ErrAuthentication},
		{code: "FailedOperation.SignatureIncorrectOrUnapproved", want: errs.ErrAuthentication},
		{code: "UnauthorizedOperation.SmsSdkAppIdVerifyFail", want: errs.ErrAuthentication},
		{code: "InvalidParameterValue.IncorrectPhoneNumber", want: errs.ErrInvalidRecipient},
		{code: "LimitExceeded.PhoneNumberDailyLimit", want: errs.ErrQuotaExceeded},
		{code: "FailedOperation.InsufficientBalanceInSmsPackage", want: errs.ErrQuotaExceeded},
		{code: "InternalError.Timeout", want: errs.ErrProviderUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, classifyTencentCode(tc.code), tc.want)
		})
	}
}
