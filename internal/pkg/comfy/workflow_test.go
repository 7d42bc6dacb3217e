package comfy

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBindings = NodeBindings{
	Seed:      "3",
	Positive:  "6",
	Negative:  "7",
	BatchSize: "5",
	LoadImage: "10",
	Output:    "9",
}

func TestLoadTemplate(t *testing.T) {
	wf, err := LoadTemplate("testdata/workflow.json", testBindings)
	require.NoError(t, err)
	require.NotNil(t, wf)
}

func TestLoadTemplateMissingFile(t *testing.T) {
	_, err := LoadTemplate("testdata/no_such_file.json", testBindings)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestWorkflowMutators(t *testing.T) {
	wf, err := LoadTemplate("testdata/workflow.json", testBindings)
	require.NoError(t, err)

	require.NoError(t, wf.SetSeed(42))
	require.NoError(t, wf.SetPositivePrompt("a cat"))
	require.NoError(t, wf.SetNegativePrompt("blurry"))
	require.NoError(t, wf.SetBatchSize(3))

	payload := wf.Payload()
	nodes := payload["workflow"].(map[string]map[string]any)

	assert.Equal(t, int64(42), nodes["3"]["inputs"].(map[string]any)["seed"])
	assert.Equal(t, "a cat", nodes["6"]["inputs"].(map[string]any)["text"])
	assert.Equal(t, "blurry", nodes["7"]["inputs"].(map[string]any)["text"])
	assert.Equal(t, 3, nodes["5"]["inputs"].(map[string]any)["batch_size"])

	// 没有附加图片时不应出现 images 字段
	_, hasImages := payload["images"]
	assert.False(t, hasImages)
}

func TestWorkflowNodeNotFound(t *testing.T) {
	wf, err := LoadTemplate("testdata/workflow.json", NodeBindings{Seed: "404"})
	require.NoError(t, err)

	err = wf.SetSeed(1)
	require.Error(t, err)

	var nodeErr *NodeNotFoundError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "404", nodeErr.NodeID)
}

func TestAttachInputImage(t *testing.T) {
	wf, err := LoadTemplate("testdata/workflow.json", testBindings)
	require.NoError(t, err)

	raw := []byte{0x89, 0x50, 0x4E, 0x47}
	require.NoError(t, wf.AttachInputImage(raw))

	payload := wf.Payload()
	images := payload["images"].([]InputImage)
	require.Len(t, images, 1)

	decoded, err := base64.StdEncoding.DecodeString(images[0].Image)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	// 加载节点应指向随负载上传的文件名
	nodes := payload["workflow"].(map[string]map[string]any)
	assert.Equal(t, images[0].Name, nodes["10"]["inputs"].(map[string]any)["image"])
}
