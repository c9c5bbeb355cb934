package refresh_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/dashcache/events"
	"github.com/jonwraymond/dashcache/refresh"
	"github.com/jonwraymond/dashcache/store"
)

func Example() {
	ctx := context.Background()
	s := store.NewMemoryStore(0)

	backend := refresh.BackendFuncs{
		AffiliateFunc: func(context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"points_balance":150}`), nil
		},
	}
	svc, err := refresh.New(refresh.Config{Store: s, Backend: backend, Bus: events.NewMemoryBus()})
	if err != nil {
		fmt.Println(err)
		return
	}

	first, _ := svc.Affiliate(ctx, true)
	second, _ := svc.Affiliate(ctx, true)
	fmt.Println(first.Cached, second.Cached, string(second.Data.Payload))
	// Output: false true {"points_balance":150}
}
