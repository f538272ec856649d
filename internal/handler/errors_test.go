package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/authflow/internal/service"
)

func TestStatusFor(t *testing.T) {
	cases := map[service.Kind]int{
		service.KindValidation:     http.StatusBadRequest,
		service.KindConflict:       http.StatusBadRequest,
		service.KindInvalidToken:   http.StatusBadRequest,
		service.KindPrecondition:   http.StatusBadRequest,
		service.KindNotFound:       http.StatusNotFound,
		service.KindAuthentication: http.StatusUnauthorized,
		service.KindDelivery:       http.StatusInternalServerError,
		service.KindInternal:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), kind)
	}
}

func TestToggleReqRequiresEnabled(t *testing.T) {
	assert.Error(t, toggleReq{}.Validate())
	off := false
	assert.NoError(t, toggleReq{Enabled: &off}.Validate())
}
