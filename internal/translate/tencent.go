package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"
)

const (
	tencentEndpoint      = "tmt.tencentcloudapi.com"
	tencentDefaultRegion = "ap-guangzhou"
)

// Tencent translates through the Tencent Cloud TMT service.
type Tencent struct {
	client *tmt.Client
}

func NewTencent(secretID, secretKey, region string) (*Tencent, error) {
	if secretID == "" || secretKey == "" {
		return nil, errors.New("tencent: secret id and key required")
	}
	if region == "" {
		region = tencentDefaultRegion
	}

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = tencentEndpoint

	client, err := tmt.NewClient(common.NewCredential(secretID, secretKey), region, cpf)
	if err != nil {
		return nil, fmt.Errorf("tencent: %w", err)
	}
	return &Tencent{client: client}, nil
}

func (t *Tencent) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	req := tmt.NewTextTranslateRequest()
	req.SourceText = common.StringPtr(text)
	req.Source = common.StringPtr(sourceLang)
	req.Target = common.StringPtr(targetLang)
	req.ProjectId = common.Int64Ptr(0)

	resp, err := t.client.TextTranslateWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("tencent: %w", err)
	}
	if resp.Response == nil || resp.Response.TargetText == nil || *resp.Response.TargetText == "" {
		return "", errors.New("tencent: empty translation")
	}
	return *resp.Response.TargetText, nil
}
