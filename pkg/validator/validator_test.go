package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type input struct {
	RoomId      string  `json:"roomId" validate:"required,max=8"`
	PlayerState int     `json:"playerState" validate:"oneof=-1 0 1 2 3"`
	CurrentTime float64 `json:"currentTime" validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		input input
		codes map[string]string
	}{
		{
			name:  "valid",
			input: input{RoomId: "abc", PlayerState: -1, CurrentTime: 0},
			codes: map[string]string{},
		},
		{
			name:  "missing room",
			input: input{PlayerState: 1},
			codes: map[string]string{"roomId": "REQUIRED"},
		},
		{
			name:  "everything wrong",
			input: input{RoomId: "waytoolongroom", PlayerState: 7, CurrentTime: -1},
			codes: map[string]string{"roomId": "MAX", "playerState": "ONEOF", "currentTime": "GTE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, ok := v.Validate(tt.input)
			assert.Equal(t, len(tt.codes) == 0, ok)

			got := make(map[string]string, len(errs))
			for _, e := range errs {
				got[e.Field] = e.Code
				assert.NotEmpty(t, e.Message)
			}
			assert.Equal(t, tt.codes, got)
		})
	}
}
