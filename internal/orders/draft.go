package orders

import (
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// ItemDraft is one line of the new-order form.
type ItemDraft struct {
	PartName   string `json:"part_name"`
	MaterialID int64  `json:"material_id"`
	Quantity   int    `json:"quantity"`
}

// Draft is the new-order form: free-text notes plus at least one item.
type Draft struct {
	Notes string      `json:"notes"`
	Items []ItemDraft `json:"items"`
}

// ItemPatch changes the fields that are set and leaves the others alone.
type ItemPatch struct {
	PartName   *string `json:"part_name,omitempty"`
	MaterialID *int64  `json:"material_id,omitempty"`
	Quantity   *int    `json:"quantity,omitempty"`
}

// NewItem is the blank line the form starts from.
func NewItem() ItemDraft {
	return ItemDraft{Quantity: 1}
}

func NewDraft() Draft {
	return Draft{Items: []ItemDraft{NewItem()}}
}

func (p ItemPatch) apply(item ItemDraft) ItemDraft {
	if p.PartName != nil {
		item.PartName = *p.PartName
	}
	if p.MaterialID != nil {
		item.MaterialID = *p.MaterialID
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	return item
}

// Validate applies the submission rules; no remote call happens when it fails.
func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return pkgerrors.Validation("add at least one item")
	}
	for i, item := range d.Items {
		switch {
		case strings.TrimSpace(item.PartName) == "":
			return itemError(i, "part name is required")
		case item.MaterialID <= 0:
			return itemError(i, "select a material")
		case item.Quantity <= 0:
			return itemError(i, "quantity must be at least 1")
		}
	}
	return nil
}

type itemErrorDetails struct {
	Item int `json:"item"`
}

func itemError(index int, msg string) error {
	return pkgerrors.Validation(msg).WithDetails(itemErrorDetails{Item: index})
}

// DraftPad holds one browser's in-progress order form.
type DraftPad struct {
	mu    sync.Mutex
	draft Draft
}

func NewDraftPad() *DraftPad {
	return &DraftPad{draft: NewDraft()}
}

func (p *DraftPad) Snapshot() Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft.clone()
}

func (p *DraftPad) SetNotes(notes string) Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft.Notes = notes
	return p.draft.clone()
}

func (p *DraftPad) AddItem() Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft.Items = append(p.draft.Items, NewItem())
	return p.draft.clone()
}

// RemoveItem drops the item at index; the last remaining item is kept.
func (p *DraftPad) RemoveItem(index int) (Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkIndex(index); err != nil {
		return p.draft.clone(), err
	}
	if len(p.draft.Items) > 1 {
		p.draft.Items = append(p.draft.Items[:index], p.draft.Items[index+1:]...)
	}
	return p.draft.clone(), nil
}

func (p *DraftPad) PatchItem(index int, patch ItemPatch) (Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkIndex(index); err != nil {
		return p.draft.clone(), err
	}
	p.draft.Items[index] = patch.apply(p.draft.Items[index])
	return p.draft.clone(), nil
}

// Reset clears the form after a successful submission.
func (p *DraftPad) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = NewDraft()
}

func (p *DraftPad) checkIndex(index int) error {
	if index < 0 || index >= len(p.draft.Items) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}

func (d Draft) clone() Draft {
	d.Items = append([]ItemDraft(nil), d.Items...)
	return d
}
