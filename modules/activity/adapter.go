package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort is how other modules read the activity log.
type ActivityPort interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type activityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates an ActivityPort over the activity module's services.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	if container == nil {
		panic("activity adapter requires non-nil ServiceContainer")
	}
	return &activityAdapter{container: container}
}

func (a *activityAdapter) Recent(ctx context.Context, limit int) ([]Entry, error) {
	req := ListActivityRequest{Limit: limit}
	var resp ListActivityResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListActivity,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceListActivity, err)
	}
	if resp.Entries == nil {
		resp.Entries = []Entry{}
	}
	return resp.Entries, nil
}
