package comfy

import (
	"fmt"
)

// ConfigError 工作流模板加载或解析失败，属于配置问题，不应重试
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("工作流模板 %s 加载失败: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NodeNotFoundError 模板中不存在绑定配置指向的节点
type NodeNotFoundError struct {
	NodeID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("工作流中不存在节点 %s", e.NodeID)
}

// TransportError HTTP层面的失败，携带原始响应体便于排查
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("远端请求失败: %v", e.Err)
	}
	return fmt.Sprintf("远端返回非预期状态码 %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteJobError 远端任务以失败态结束，携带最终任务记录
type RemoteJobError struct {
	JobID  string
	Status string
	Record map[string]any
}

func (e *RemoteJobError) Error() string {
	return fmt.Sprintf("远端任务 %s 以状态 %s 结束", e.JobID, e.Status)
}

// MalformedResponseError 任务成功但响应结构不符合约定
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("远端响应结构异常: %s", e.Reason)
}
