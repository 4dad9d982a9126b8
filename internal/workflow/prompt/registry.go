package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptContentTransformV1 PromptID = "content_transform_v1"
	PromptIntelligentV1      PromptID = "intelligent_workflow_v1"
	PromptChapterCreateV1    PromptID = "chapter_create_v1"
	PromptChapterContinueV1  PromptID = "chapter_continue_v1"
	PromptSchemaCorrectionV1 PromptID = "schema_correction_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptContentTransformV1:
		return "templates/content_transform_v1.system.txt", "templates/content_transform_v1.user.txt", nil
	case PromptIntelligentV1:
		return "templates/intelligent_workflow_v1.system.txt", "templates/intelligent_workflow_v1.user.txt", nil
	case PromptChapterCreateV1:
		return "templates/chapter_create_v1.system.txt", "templates/chapter_create_v1.user.txt", nil
	case PromptChapterContinueV1:
		return "templates/chapter_continue_v1.system.txt", "templates/chapter_continue_v1.user.txt", nil
	case PromptSchemaCorrectionV1:
		return "templates/schema_correction_v1.system.txt", "templates/schema_correction_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
