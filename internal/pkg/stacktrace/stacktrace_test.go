package stacktrace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInternalPaths(t *testing.T) {
	// Arrange
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/PrzemekSkw/totp-sync/internal/pkg/messaging.callHandlerWithRecover.func1()
	/src/totp-sync/internal/pkg/messaging/recover.go:15 +0x4a
github.com/PrzemekSkw/totp-sync/internal/vault/inbound.(*MQHandler).OwnerDeleted(...)
	/src/totp-sync/internal/vault/inbound/mq_handler.go:61
`)

	// Act
	got := InternalPaths(stack)

	// Assert
	want := []string{
		"internal/pkg/messaging/recover.go:15",
		"internal/vault/inbound/mq_handler.go:61",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("InternalPaths() mismatch (-want +got):\n%s", diff)
	}
}
