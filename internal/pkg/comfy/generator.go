package comfy

import (
	"Atelier/internal/api/config"
	"context"
	"fmt"
)

// GenerateParams 一次生成所需的全部入参，种子由调用方决定并负责落库
type GenerateParams struct {
	Kind           string
	PositivePrompt string
	NegativePrompt string
	NumOutputs     int
	Seed           int64
	InputImage     []byte
}

// Generator 按配置组装工作流并驱动远端执行
type Generator struct {
	client *Client
	cfg    config.ComfyConfig
}

func NewGenerator(cfg config.ComfyConfig) *Generator {
	return &Generator{
		client: NewClient(cfg.EndpointURL, cfg.EndpointID, cfg.ApiKey),
		cfg:    cfg,
	}
}

// Generate 加载模板、写入参数、提交并解码产物
func (g *Generator) Generate(ctx context.Context, p GenerateParams) ([][]byte, error) {
	var wfCfg config.WorkflowFileConfig
	switch p.Kind {
	case "text_to_image":
		wfCfg = g.cfg.TextToImage
	case "image_to_image":
		wfCfg = g.cfg.ImageToImage
	default:
		return nil, &ConfigError{Path: p.Kind, Err: fmt.Errorf("未知的生成类型")}
	}

	wf, err := LoadTemplate(wfCfg.TemplatePath, NodeBindings{
		Seed:      wfCfg.SeedNode,
		Positive:  wfCfg.PositiveNode,
		Negative:  wfCfg.NegativeNode,
		BatchSize: wfCfg.BatchSizeNode,
		LoadImage: wfCfg.LoadImageNode,
		Output:    wfCfg.OutputNode,
	})
	if err != nil {
		return nil, err
	}

	if err = wf.SetSeed(p.Seed); err != nil {
		return nil, err
	}
	if err = wf.SetPositivePrompt(p.PositivePrompt); err != nil {
		return nil, err
	}
	if err = wf.SetNegativePrompt(p.NegativePrompt); err != nil {
		return nil, err
	}
	if err = wf.SetBatchSize(p.NumOutputs); err != nil {
		return nil, err
	}
	if len(p.InputImage) > 0 {
		if err = wf.AttachInputImage(p.InputImage); err != nil {
			return nil, err
		}
	}

	output, err := g.client.Submit(ctx, wf, g.cfg.SyncSubmit)
	if err != nil {
		return nil, err
	}

	return DecodeArtifacts(output)
}

// DefaultSdModel 返回该生成类型使用的模型名，用于落库记录
func (g *Generator) DefaultSdModel(kind string) string {
	if kind == "image_to_image" {
		return g.cfg.ImageToImage.DefaultSdModel
	}
	return g.cfg.TextToImage.DefaultSdModel
}
