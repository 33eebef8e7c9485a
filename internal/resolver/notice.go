package resolver

import (
	"context"
	"log/slog"

	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/intent"
	"github.com/garyellow/baera-chatbot-go/internal/sliceutil"
)

// NoticeResolver attaches the images of notices referenced by "[ID: n]"
// markers in the answer.
type NoticeResolver struct{}

// NewNoticeResolver creates a NoticeResolver.
func NewNoticeResolver() *NoticeResolver { return &NoticeResolver{} }

func (*NoticeResolver) Route() intent.Route { return intent.RouteNotice }

func (*NoticeResolver) Resolve(ctx context.Context, snap *catalog.Snapshot, req Request) Result {
	ids := catalog.NoticeIDs(req.Answer)
	if len(ids) == 0 {
		return Result{}
	}

	var images sliceutil.OrderedSet[string]
	for _, id := range ids {
		notice, ok := snap.Notices[id]
		if !ok {
			slog.WarnContext(ctx, "answer references unknown notice", "notice_id", id, "notices", len(snap.Notices))
			continue
		}
		if notice.HasImage() {
			images.Add(notice.ImageURL)
		}
	}

	if images.Len() == 0 {
		slog.WarnContext(ctx, "notice markers found but no image attached", "ids", ids)
	}
	return Result{Images: images.Values()}
}
