package service

import (
	"sync"

	"github.com/UnendingLoop/ImageDrop/internal/model"
)

// Attachments - упорядоченные списки URL по черновикам, живут только в памяти процесса
type Attachments struct {
	mu     sync.Mutex
	drafts map[string][]string
}

func NewAttachments() *Attachments {
	return &Attachments{drafts: make(map[string][]string)}
}

// Apply mutates the draft the way the event describes.
func (a *Attachments) Apply(e model.UploadEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch e.Kind {
	case model.EventAdded:
		a.drafts[e.DraftID] = append(a.drafts[e.DraftID], e.URL)
	case model.EventRemovedAt:
		list, ok := a.drafts[e.DraftID]
		if !ok {
			return model.ErrDraftNotFound
		}
		if e.Index < 0 || e.Index >= len(list) {
			return model.ErrIndexOutOfRange
		}
		a.drafts[e.DraftID] = append(list[:e.Index:e.Index], list[e.Index+1:]...)
	case model.EventClearedAll:
		if _, ok := a.drafts[e.DraftID]; !ok {
			return model.ErrDraftNotFound
		}
		a.drafts[e.DraftID] = []string{}
	default:
		return model.ErrUnsupportedEvent
	}
	return nil
}

func (a *Attachments) List(draftID string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list, ok := a.drafts[draftID]
	if !ok {
		return nil, model.ErrDraftNotFound
	}
	res := make([]string, len(list))
	copy(res, list)
	return res, nil
}
