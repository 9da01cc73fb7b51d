package mailcheck

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"prospectflow/internal/model"
)

// ExpertMatch resolves a reply onto an expert-sent email thread.
type ExpertMatch struct {
	ExpertEmailID   string
	ExpertID        string
	ClientID        string
	ClientProductID *string
}

// ProspectMatch resolves a reply onto a prospect and the outbound
// record the reply answers. OutboundEmailID is
// model.AutoCreatedOutboundID for auto-created prospects.
type ProspectMatch struct {
	ProspectID      string
	OutboundEmailID string
}

// Matcher resolves a sender to a known business entity, expert threads
// first, prospects second.
type Matcher struct {
	expertEmails ExpertEmailStore
	prospects    ProspectStore
	outbound     OutboundStore
	logger       *zap.Logger
}

func NewMatcher(expertEmails ExpertEmailStore, prospects ProspectStore, outbound OutboundStore, logger *zap.Logger) *Matcher {
	return &Matcher{
		expertEmails: expertEmails,
		prospects:    prospects,
		outbound:     outbound,
		logger:       logger,
	}
}

// MatchExpertThread looks the reply's thread ids up against stored
// outbound expert emails with status "sent". Exact id equality first,
// then substring containment. First hit wins. nil when unmatched.
func (m *Matcher) MatchExpertThread(ctx context.Context, reply *ReplyInfo) (*ExpertMatch, error) {
	candidates := threadCandidates(reply)
	if len(candidates) == 0 {
		return nil, nil
	}

	for _, id := range candidates {
		email, err := m.expertEmails.FindSentByMessageID(ctx, id)
		if err != nil {
			return nil, err
		}
		if email != nil {
			return expertMatchOf(email), nil
		}
	}

	for _, id := range candidates {
		email, err := m.expertEmails.FindSentByMessageIDContains(ctx, id)
		if err != nil {
			return nil, err
		}
		if email != nil {
			m.logger.Info("expert thread matched by substring fallback",
				zap.String("candidate", id),
				zap.String("expert_email_id", email.ID),
			)
			return expertMatchOf(email), nil
		}
	}

	return nil, nil
}

// MatchProspect resolves the sender to a prospect holding an unreplied
// outbound record: exact address first, then same-domain fallback.
// nil when unmatched; the caller decides on auto-creation.
func (m *Matcher) MatchProspect(ctx context.Context, fromAddress string) (*ProspectMatch, error) {
	prospect, err := m.prospects.FindByEmail(ctx, strings.ToLower(fromAddress))
	if err != nil {
		return nil, err
	}
	if prospect != nil {
		match, err := m.latestUnrepliedOf(ctx, prospect.ID)
		if err != nil {
			return nil, err
		}
		if match == nil {
			// Known sender with no open outbound record. Attach with
			// the sentinel rather than falling through, which would
			// end in a duplicate auto-created prospect.
			match = &ProspectMatch{ProspectID: prospect.ID, OutboundEmailID: model.AutoCreatedOutboundID}
		}
		return match, nil
	}

	domain := EmailDomain(fromAddress)
	if domain == "" {
		return nil, nil
	}

	sameDomain, err := m.prospects.FindByEmailDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	for _, candidate := range sameDomain {
		match, err := m.latestUnrepliedOf(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		if match != nil {
			return match, nil
		}
	}

	return nil, nil
}

// latestUnrepliedOf applies the tie-break rule: most recent by send
// time among records with replied=false, never most recent overall.
func (m *Matcher) latestUnrepliedOf(ctx context.Context, prospectID string) (*ProspectMatch, error) {
	outbound, err := m.outbound.LatestUnreplied(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if outbound == nil {
		return nil, nil
	}
	return &ProspectMatch{ProspectID: prospectID, OutboundEmailID: outbound.ID}, nil
}

// threadCandidates collects the cleaned In-Reply-To plus all References
// ids.
func threadCandidates(reply *ReplyInfo) []string {
	var out []string
	if id := cleanMessageID(reply.InReplyTo); id != "" {
		out = append(out, id)
	}
	for _, ref := range reply.References {
		if id := cleanMessageID(ref); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func cleanMessageID(id string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(id), "<>"))
}

func expertMatchOf(email *model.ExpertEmail) *ExpertMatch {
	return &ExpertMatch{
		ExpertEmailID:   email.ID,
		ExpertID:        email.ExpertID,
		ClientID:        email.ClientID,
		ClientProductID: email.ClientProductID,
	}
}
