package comfy

import (
	"context"
	"encoding/base64"
	"fmt"
	log "log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// 远端任务状态
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusCancelled  = "CANCELLED"
	StatusTimedOut   = "TIMED_OUT"
)

const defaultPollInterval = 5 * time.Second

// jobRecord 远端任务记录
type jobRecord struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Output map[string]any `json:"output"`
}

// Client 远端推理服务客户端。只负责提交与轮询，从不代替调用方重试，
// 失败后的重新生成由上层带新种子重新提交。
type Client struct {
	http         *resty.Client
	endpointID   string
	pollInterval time.Duration
}

func NewClient(baseURL, endpointID, apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:         httpClient,
		endpointID:   endpointID,
		pollInterval: defaultPollInterval,
	}
}

// Submit 提交工作流并等待终态，返回远端任务的 output 字段。
// sync 模式下远端可能直接带回结果，否则与异步一样进入轮询。
func (c *Client) Submit(ctx context.Context, wf *Workflow, sync bool) (map[string]any, error) {
	path := fmt.Sprintf("/%s/run", c.endpointID)
	if sync {
		path = fmt.Sprintf("/%s/runsync", c.endpointID)
	}

	body := map[string]any{"input": wf.Payload()}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode() != 200 {
		return nil, &TransportError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var record jobRecord
	if err = json.Unmarshal(resp.Body(), &record); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("提交响应无法解析: %v", err)}
	}

	// 同步提交可能直接携带结果
	if record.Status == StatusCompleted && record.Output != nil {
		return record.Output, nil
	}
	// 提交响应只有明确的失败终态才短路，状态缺失或不认识时仍按任务 id 轮询
	switch record.Status {
	case StatusFailed, StatusCancelled, StatusTimedOut:
		return nil, c.failure(resp.Body(), record)
	}
	if record.ID == "" {
		return nil, &MalformedResponseError{Reason: "提交响应缺少任务 id"}
	}

	log.InfoContext(ctx, "远端任务已提交", "job_id", record.ID, "status", record.Status)
	return c.poll(ctx, record.ID)
}

// poll 固定间隔轮询直到终态。轮询期间的网络错误直接上抛，不做重试。
func (c *Client) poll(ctx context.Context, jobID string) (map[string]any, error) {
	path := fmt.Sprintf("/%s/status/%s", c.endpointID, jobID)

	for first := true; ; first = false {
		if !first {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}

		resp, err := c.http.R().
			SetContext(ctx).
			Get(path)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		if resp.StatusCode() != 200 {
			return nil, &TransportError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
		}

		var record jobRecord
		if err = json.Unmarshal(resp.Body(), &record); err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("状态响应无法解析: %v", err)}
		}

		switch record.Status {
		case StatusInQueue, StatusInProgress:
			continue
		case StatusCompleted:
			return record.Output, nil
		default:
			// FAILED / TIMED_OUT / CANCELLED 以及未知状态统一视为失败终态
			return nil, c.failure(resp.Body(), record)
		}
	}
}

func (c *Client) failure(raw []byte, record jobRecord) error {
	var full map[string]any
	_ = json.Unmarshal(raw, &full)
	return &RemoteJobError{JobID: record.ID, Status: record.Status, Record: full}
}

// DecodeArtifacts 从终态 output 中取出产物并解码。
// output.message 可能是单个 base64 字符串，也可能是字符串列表。
func DecodeArtifacts(output map[string]any) ([][]byte, error) {
	if output == nil {
		return nil, &MalformedResponseError{Reason: "响应缺少 output 字段"}
	}

	raw, ok := output["message"]
	if !ok {
		return nil, &MalformedResponseError{Reason: "output 中缺少 message 字段"}
	}

	var encoded []string
	switch v := raw.(type) {
	case string:
		encoded = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &MalformedResponseError{Reason: "message 列表中存在非字符串项"}
			}
			encoded = append(encoded, s)
		}
	default:
		return nil, &MalformedResponseError{Reason: "message 字段类型非法"}
	}

	artifacts := make([][]byte, 0, len(encoded))
	for _, s := range encoded {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("产物 base64 解码失败: %v", err)}
		}
		artifacts = append(artifacts, data)
	}
	return artifacts, nil
}
