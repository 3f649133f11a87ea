package ioc

import (
	"context"
	"fmt"

	"gitee.com/flycash/alert-engine/internal/domain"
	"gitee.com/flycash/alert-engine/internal/service/registry"
	smsclient "gitee.com/flycash/alert-engine/internal/service/sms/client"
)

// InitSmsClients 按账号建立厂商客户端，一个账号一个客户端实例，
// 互不共享凭证。返回值按账号ID索引
func InitSmsClients(ctx context.Context, reg registry.Service) map[int64]smsclient.Client {
	accounts, err := reg.ListActive(ctx)
	if err != nil {
		panic(fmt.Errorf("加载供应商账号失败: %w", err))
	}

	clients := make(map[int64]smsclient.Client, len(accounts))
	for i := range accounts {
		account := accounts[i]
		cli, err := newVendorClient(account)
		if err != nil {
			panic(fmt.Errorf("初始化账号 %q 客户端失败: %w", account.Name, err))
		}
		clients[account.ID] = cli
	}
	return clients
}

func newVendorClient(account domain.ProviderAccount) (smsclient.Client, error) {
	switch account.Code {
	case domain.ProviderCodeAliyun:
		return smsclient.NewAliyunSMS(account.RegionID, account.APIKey, account.APISecret)
	case domain.ProviderCodeTencent:
		return smsclient.NewTencentCloudSMS(account.RegionID, account.APIKey, account.APISecret, account.AppID)
	default:
		return nil, fmt.Errorf("未知的厂商编码 %q", account.Code)
	}
}
