package models

import "testing"

func TestMemoryFilterEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter MemoryFilter
		want   bool
	}{
		{"zero value", MemoryFilter{}, true},
		{"type set", MemoryFilter{DocumentType: FormatJSON}, false},
		{"intent set", MemoryFilter{Intent: IntentInvoice}, false},
		{"thread set", MemoryFilter{ThreadID: "t-1"}, false},
		{"conversation set", MemoryFilter{ConversationID: "c-1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}
