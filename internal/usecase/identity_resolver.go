package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/platform/id"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/namematch"
)

// IdentityQuery describes one provider entity to resolve. Which hint fields
// matter depends on EntityType.
type IdentityQuery struct {
	EntityType externalid.EntityType
	Source     Source
	ProviderID string

	// team and player
	Name string

	// team tie-break
	City    string
	Stadium string

	// player
	DateOfBirth *time.Time
	TeamID      string

	// match
	HomeTeamID string
	AwayTeamID string
	Date       time.Time
}

func (q IdentityQuery) validate() error {
	if _, err := externalid.ParseEntityType(string(q.EntityType)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if q.Source == "" || strings.TrimSpace(q.ProviderID) == "" {
		return fmt.Errorf("%w: identity query requires source and provider id", ErrInvalidInput)
	}
	switch q.EntityType {
	case externalid.EntityTeam, externalid.EntityPlayer:
		if strings.TrimSpace(q.Name) == "" {
			return fmt.Errorf("%w: %s identity query requires a name", ErrInvalidInput, q.EntityType)
		}
	case externalid.EntityMatch:
		if q.HomeTeamID == "" || q.AwayTeamID == "" || q.Date.IsZero() {
			return fmt.Errorf("%w: match identity query requires teams and date", ErrInvalidInput)
		}
	}
	return nil
}

func (q IdentityQuery) String() string {
	return fmt.Sprintf("%s %s:%s", q.EntityType, q.Source, q.ProviderID)
}

type ResolutionMethod string

const (
	ResolvedByExternalID ResolutionMethod = "external_id"
	ResolvedByName       ResolutionMethod = "name"
	ResolvedByCreate     ResolutionMethod = "created"
)

type Resolution struct {
	InternalID string
	Method     ResolutionMethod
}

func (r Resolution) Created() bool {
	return r.Method == ResolvedByCreate
}

// CreateFunc inserts the placeholder row for a new internal id.
type CreateFunc func(ctx context.Context, tx Tx, internalID string) error

type IdentityResolver struct {
	ids    id.Generator
	logger *logging.Logger
}

func NewIdentityResolver(ids id.Generator, logger *logging.Logger) *IdentityResolver {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IdentityResolver{ids: ids, logger: logger.Named("identity")}
}

// Resolve maps a provider entity onto an internal id, binding or creating as
// needed. Nothing is written when the result is ambiguous.
func (r *IdentityResolver) Resolve(ctx context.Context, tx Tx, q IdentityQuery, create CreateFunc) (_ Resolution, err error) {
	ctx, span := startSpan(ctx, "usecase.IdentityResolver.Resolve",
		sourceAttr(q.Source),
		attribute.String("identity.entity_type", string(q.EntityType)),
	)
	defer func() { endSpan(span, err) }()

	if err := q.validate(); err != nil {
		return Resolution{}, err
	}

	mapping, ok, err := tx.ExternalIDs().Lookup(ctx, q.EntityType, string(q.Source), q.ProviderID)
	if err != nil {
		return Resolution{}, fmt.Errorf("lookup external id %s: %w", q, err)
	}
	if ok {
		return Resolution{InternalID: mapping.InternalID, Method: ResolvedByExternalID}, nil
	}

	matches, err := r.candidates(ctx, tx, q)
	if err != nil {
		return Resolution{}, err
	}
	eligible, err := r.eligible(ctx, tx, q, matches)
	if err != nil {
		return Resolution{}, err
	}
	if len(matches) > 0 && len(eligible) == 0 {
		return Resolution{}, errors.Wrapf(ErrAmbiguousIdentity,
			"%s: every candidate is bound to another %s id", q, q.Source)
	}

	switch len(eligible) {
	case 0:
		internalID, err := r.ids.NewID()
		if err != nil {
			return Resolution{}, fmt.Errorf("generate internal id for %s: %w", q, err)
		}
		if create == nil {
			return Resolution{}, fmt.Errorf("%w: no create func for %s", ErrInvalidInput, q)
		}
		if err := create(ctx, tx, internalID); err != nil {
			return Resolution{}, fmt.Errorf("create %s: %w", q, err)
		}
		if err := r.bind(ctx, tx, q, internalID); err != nil {
			return Resolution{}, err
		}
		r.logger.DebugContext(ctx, "created internal id", "query", q.String(), "internal_id", internalID)
		return Resolution{InternalID: internalID, Method: ResolvedByCreate}, nil
	case 1:
		if err := r.bind(ctx, tx, q, eligible[0]); err != nil {
			return Resolution{}, err
		}
		r.logger.DebugContext(ctx, "bound by name", "query", q.String(), "internal_id", eligible[0])
		return Resolution{InternalID: eligible[0], Method: ResolvedByName}, nil
	default:
		return Resolution{}, errors.Wrapf(ErrAmbiguousIdentity,
			"%s matches %d existing records: %s", q, len(eligible), strings.Join(eligible, ","))
	}
}

// ResolveAll resolves several queries that describe the same entity at
// different sources. An existing mapping on any query wins; the rest are
// bound to the same internal id.
func (r *IdentityResolver) ResolveAll(ctx context.Context, tx Tx, queries []IdentityQuery, create CreateFunc) (Resolution, error) {
	if len(queries) == 0 {
		return Resolution{}, fmt.Errorf("%w: no identity queries", ErrInvalidInput)
	}

	var known string
	for _, q := range queries {
		if err := q.validate(); err != nil {
			return Resolution{}, err
		}
		mapping, ok, err := tx.ExternalIDs().Lookup(ctx, q.EntityType, string(q.Source), q.ProviderID)
		if err != nil {
			return Resolution{}, fmt.Errorf("lookup external id %s: %w", q, err)
		}
		if !ok {
			continue
		}
		if known != "" && known != mapping.InternalID {
			return Resolution{}, errors.Wrapf(ErrAmbiguousIdentity,
				"%s maps to %s but a sibling record maps to %s", q, mapping.InternalID, known)
		}
		known = mapping.InternalID
	}

	res := Resolution{InternalID: known, Method: ResolvedByExternalID}
	if known == "" {
		var err error
		res, err = r.Resolve(ctx, tx, queries[0], create)
		if err != nil {
			return Resolution{}, err
		}
	}
	for _, q := range queries {
		if err := r.attach(ctx, tx, q, res.InternalID); err != nil {
			return Resolution{}, err
		}
	}
	return res, nil
}

// attach binds q to internalID unless it is already bound there.
func (r *IdentityResolver) attach(ctx context.Context, tx Tx, q IdentityQuery, internalID string) error {
	mapping, ok, err := tx.ExternalIDs().Lookup(ctx, q.EntityType, string(q.Source), q.ProviderID)
	if err != nil {
		return fmt.Errorf("lookup external id %s: %w", q, err)
	}
	if ok {
		if mapping.InternalID != internalID {
			return errors.Wrapf(ErrAmbiguousIdentity, "%s already maps to %s", q, mapping.InternalID)
		}
		return nil
	}
	eligible, err := r.eligible(ctx, tx, q, []string{internalID})
	if err != nil {
		return err
	}
	if len(eligible) == 0 {
		return errors.Wrapf(ErrAmbiguousIdentity, "%s: %s is bound to another %s id", q, internalID, q.Source)
	}
	return r.bind(ctx, tx, q, internalID)
}

// Lookup resolves without writing. It reports false when the entity is
// unknown or cannot be told apart by name.
func (r *IdentityResolver) Lookup(ctx context.Context, tx Tx, q IdentityQuery) (string, bool, error) {
	if q.Source != "" && q.ProviderID != "" {
		mapping, ok, err := tx.ExternalIDs().Lookup(ctx, q.EntityType, string(q.Source), q.ProviderID)
		if err != nil {
			return "", false, fmt.Errorf("lookup external id %s: %w", q, err)
		}
		if ok {
			return mapping.InternalID, true, nil
		}
	}
	if q.EntityType != externalid.EntityMatch && strings.TrimSpace(q.Name) == "" {
		return "", false, nil
	}

	matches, err := r.candidates(ctx, tx, q)
	if err != nil {
		return "", false, err
	}
	if len(matches) != 1 {
		return "", false, nil
	}
	return matches[0], true, nil
}

// Correct points a provider id at a different internal id. It is the only
// path that rewrites an existing mapping.
func (r *IdentityResolver) Correct(
	ctx context.Context,
	tx Tx,
	entityType externalid.EntityType,
	source Source,
	providerID string,
	internalID string,
) (_ string, err error) {
	ctx, span := startSpan(ctx, "usecase.IdentityResolver.Correct",
		sourceAttr(source),
		attribute.String("identity.entity_type", string(entityType)),
	)
	defer func() { endSpan(span, err) }()

	item := externalid.Mapping{
		EntityType: entityType,
		Source:     string(source),
		ProviderID: strings.TrimSpace(providerID),
		InternalID: strings.TrimSpace(internalID),
	}
	if err := item.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	exists, err := r.entityExists(ctx, tx, entityType, item.InternalID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, entityType, item.InternalID)
	}

	previous, err := tx.ExternalIDs().Rebind(ctx, item)
	if err != nil {
		return "", fmt.Errorf("rebind %s %s:%s: %w", entityType, source, providerID, err)
	}
	r.logger.InfoContext(ctx, "external id corrected",
		"entity_type", string(entityType),
		"source", string(source),
		"provider_id", item.ProviderID,
		"previous_internal_id", previous,
		"internal_id", item.InternalID,
	)
	return previous, nil
}

func (r *IdentityResolver) bind(ctx context.Context, tx Tx, q IdentityQuery, internalID string) error {
	err := tx.ExternalIDs().Bind(ctx, externalid.Mapping{
		EntityType: q.EntityType,
		Source:     string(q.Source),
		ProviderID: q.ProviderID,
		InternalID: internalID,
	})
	if err != nil {
		return fmt.Errorf("bind %s to %s: %w", q, internalID, err)
	}
	return nil
}

func (r *IdentityResolver) entityExists(ctx context.Context, tx Tx, entityType externalid.EntityType, internalID string) (bool, error) {
	var (
		ok  bool
		err error
	)
	switch entityType {
	case externalid.EntityTeam:
		_, ok, err = tx.Teams().GetByID(ctx, internalID)
	case externalid.EntityPlayer:
		_, ok, err = tx.Players().GetByID(ctx, internalID)
	case externalid.EntityMatch:
		_, ok, err = tx.Matches().GetByID(ctx, internalID)
	}
	if err != nil {
		return false, fmt.Errorf("get %s %s: %w", entityType, internalID, err)
	}
	return ok, nil
}

// candidates returns internal ids matching the query's natural key, narrowed
// by the per-entity tie-breaks.
func (r *IdentityResolver) candidates(ctx context.Context, tx Tx, q IdentityQuery) ([]string, error) {
	switch q.EntityType {
	case externalid.EntityTeam:
		items, err := tx.Teams().FindByNormalizedName(ctx, namematch.NormalizeTeam(q.Name))
		if err != nil {
			return nil, fmt.Errorf("find teams by name %q: %w", q.Name, err)
		}
		return teamIDs(narrowTeams(items, q)), nil
	case externalid.EntityPlayer:
		items, err := tx.Players().FindByNormalizedName(ctx, namematch.Normalize(q.Name))
		if err != nil {
			return nil, fmt.Errorf("find players by name %q: %w", q.Name, err)
		}
		return playerIDs(narrowPlayers(items, q)), nil
	case externalid.EntityMatch:
		items, err := tx.Matches().FindByFixture(ctx, q.HomeTeamID, q.AwayTeamID, match.DateOf(q.Date))
		if err != nil {
			return nil, fmt.Errorf("find matches by fixture: %w", err)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported entity type %q", ErrInvalidInput, q.EntityType)
	}
}

// eligible drops candidates already bound to a different id of the same
// source.
func (r *IdentityResolver) eligible(ctx context.Context, tx Tx, q IdentityQuery, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, internalID := range ids {
		mappings, err := tx.ExternalIDs().ListByInternalID(ctx, q.EntityType, internalID)
		if err != nil {
			return nil, fmt.Errorf("list external ids of %s %s: %w", q.EntityType, internalID, err)
		}
		taken := false
		for _, m := range mappings {
			if m.Source == string(q.Source) && m.ProviderID != q.ProviderID {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, internalID)
		}
	}
	return out, nil
}

func narrowTeams(items []team.Team, q IdentityQuery) []team.Team {
	if len(items) < 2 {
		return items
	}
	city := namematch.Normalize(q.City)
	stadium := namematch.Normalize(q.Stadium)
	if city == "" && stadium == "" {
		return items
	}
	out := make([]team.Team, 0, len(items))
	for _, item := range items {
		if (city != "" && namematch.Normalize(item.City) == city) ||
			(stadium != "" && namematch.Normalize(item.Stadium) == stadium) {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return items
	}
	return out
}

func narrowPlayers(items []player.Player, q IdentityQuery) []player.Player {
	if q.DateOfBirth != nil {
		kept := items[:0:0]
		for _, item := range items {
			if item.DateOfBirth != nil && !sameDay(*item.DateOfBirth, *q.DateOfBirth) {
				continue
			}
			kept = append(kept, item)
		}
		items = kept
	}
	if len(items) < 2 {
		return items
	}

	if q.DateOfBirth != nil {
		var sameDOB []player.Player
		for _, item := range items {
			if item.DateOfBirth != nil {
				sameDOB = append(sameDOB, item)
			}
		}
		if len(sameDOB) > 0 {
			items = sameDOB
		}
		if len(items) < 2 {
			return items
		}
	}

	if q.TeamID != "" {
		var sameTeam []player.Player
		for _, item := range items {
			if item.TeamID == q.TeamID {
				sameTeam = append(sameTeam, item)
			}
		}
		if len(sameTeam) > 0 {
			items = sameTeam
		}
	}
	return items
}

func sameDay(a, b time.Time) bool {
	return match.DateOf(a).Equal(match.DateOf(b))
}

func teamIDs(items []team.Team) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func playerIDs(items []player.Player) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
