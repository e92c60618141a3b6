package notionsync

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/jomei/notionapi"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{"not found", &notionapi.Error{Status: http.StatusNotFound, Message: "Could not find page"}, true},
		{"rate limited", &notionapi.Error{Status: http.StatusTooManyRequests}, false},
		{"transport", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if errors.Is(got, domain.ErrNotFound) != tt.wantNotFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v", !tt.wantNotFound, tt.wantNotFound)
			}
			if !errors.Is(got, tt.err) {
				t.Error("original error is no longer reachable")
			}
		})
	}
}

func TestNewNotionClient_DefaultTimeout(t *testing.T) {
	if c := NewNotionClient("secret", 0); c.api == nil {
		t.Fatal("expected an API client")
	}
}
