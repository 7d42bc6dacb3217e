package comfy

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// NodeBindings 描述模板里各个可写节点的编号，由配置提供
type NodeBindings struct {
	Seed      string
	Positive  string
	Negative  string
	BatchSize string
	LoadImage string
	Output    string
}

// InputImage 随工作流一起上传的图片，远端按文件名落盘后供加载节点读取
type InputImage struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Workflow 一次提交所需的完整负载，显式构建，不依赖任何全局状态
type Workflow struct {
	nodes    map[string]map[string]any
	bindings NodeBindings
	images   []InputImage
}

// LoadTemplate 读取并解析工作流模板文件
func LoadTemplate(path string, bindings NodeBindings) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var nodes map[string]map[string]any
	if err = json.Unmarshal(data, &nodes); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	return &Workflow{nodes: nodes, bindings: bindings}, nil
}

// inputs 取出指定节点的 inputs 字典
func (w *Workflow) inputs(nodeID string) (map[string]any, error) {
	node, ok := w.nodes[nodeID]
	if !ok {
		return nil, &NodeNotFoundError{NodeID: nodeID}
	}
	in, ok := node["inputs"].(map[string]any)
	if !ok {
		return nil, &NodeNotFoundError{NodeID: nodeID}
	}
	return in, nil
}

func (w *Workflow) SetSeed(seed int64) error {
	in, err := w.inputs(w.bindings.Seed)
	if err != nil {
		return err
	}
	in["seed"] = seed
	return nil
}

func (w *Workflow) SetPositivePrompt(prompt string) error {
	in, err := w.inputs(w.bindings.Positive)
	if err != nil {
		return err
	}
	in["text"] = prompt
	return nil
}

func (w *Workflow) SetNegativePrompt(prompt string) error {
	in, err := w.inputs(w.bindings.Negative)
	if err != nil {
		return err
	}
	in["text"] = prompt
	return nil
}

func (w *Workflow) SetBatchSize(n int) error {
	in, err := w.inputs(w.bindings.BatchSize)
	if err != nil {
		return err
	}
	in["batch_size"] = n
	return nil
}

// AttachInputImage 将图片编码进负载，并让加载节点指向它
func (w *Workflow) AttachInputImage(data []byte) error {
	in, err := w.inputs(w.bindings.LoadImage)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s.png", uuid.NewString())
	in["image"] = name
	w.images = append(w.images, InputImage{
		Name:  name,
		Image: base64.StdEncoding.EncodeToString(data),
	})
	return nil
}

// Payload 组装提交给远端的 input 字段
func (w *Workflow) Payload() map[string]any {
	payload := map[string]any{
		"workflow": w.nodes,
	}
	if len(w.images) > 0 {
		payload["images"] = w.images
	}
	return payload
}
