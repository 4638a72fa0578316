package swap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"btc balance", &codedError{141, "err.notenoughbalance.btc"}, "modal.txFailed.moreBTC"},
		{"rbtc balance", &codedError{141, "err.notenoughbalance.rbtc"}, "modal.txFailed.moreRBTC"},
		{"rif balance", &codedError{141, "err.notenoughbalance.rif"}, "modal.txFailed.moreRIF"},
		{"generic balance", &codedError{141, "err.notenoughbalance"}, "modal.txFailed.moreBalance"},
		{"timeout", &codedError{141, "err.timeout"}, "modal.txFailed.serverTimeout"},
		{"customized", &codedError{141, "err.customized|Order expired"}, "Order expired"},
		{"customized without text", &codedError{141, "err.customized"}, "modal.txFailed.contactService"},
		{"unknown key", &codedError{141, "err.other"}, "modal.txFailed.contactService"},
		{"other code", &codedError{500, "err.timeout"}, "modal.txFailed.contactService"},
		{"wrapped", fmt.Errorf("place order: %w", &codedError{141, "err.timeout|late"}), "modal.txFailed.serverTimeout"},
		{"plain error", errors.New("boom"), "modal.txFailed.contactService"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NotificationFor(tt.err)
			assert.Equal(t, KindError, n.Kind)
			assert.Equal(t, "modal.txFailed.title", n.TitleKey)
			assert.Equal(t, "button.retry", n.ButtonKey)
			assert.Equal(t, tt.want, n.MessageKey)
		})
	}
}
