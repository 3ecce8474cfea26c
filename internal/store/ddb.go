package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/hockey-stats-backends/internal/ep"
	"github.com/tyler180/hockey-stats-backends/internal/nhl"
)

type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Tables names the DynamoDB table per record kind. An empty name disables that kind.
type Tables struct {
	Roster string
	Facts  string
	Stats  string
	Team   string
}

// Dynamo writes collected records with 25-item BatchWriteItem calls.
type Dynamo struct {
	API    DynamoDBAPI
	Tables Tables
	// RetryBackoff is the first wait before resending unprocessed items.
	RetryBackoff time.Duration
}

func NewDynamo(api DynamoDBAPI, t Tables) *Dynamo {
	return &Dynamo{API: api, Tables: t, RetryBackoff: 120 * time.Millisecond}
}

const maxBatch = 25

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func n(v int) types.AttributeValue { return &types.AttributeValueMemberN{Value: strconv.Itoa(v)} }

func putOpt(item map[string]types.AttributeValue, k, v string) {
	if v != "" {
		item[k] = s(v)
	}
}

func putNum(item map[string]types.AttributeValue, k string, v *int) {
	if v != nil {
		item[k] = n(*v)
	}
}

// Roster rows: PK=LeagueSeason (league#season), SK=PlayerTeam (profile link#team)
func (d *Dynamo) PutRoster(ctx context.Context, recs []ep.RosterRecord) error {
	if d.Tables.Roster == "" || len(recs) == 0 {
		return nil
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	seen := map[string]bool{}
	items := make([]map[string]types.AttributeValue, 0, len(recs))
	for _, r := range recs {
		if r.ProfileLink == "" || r.League == "" || r.Season == "" {
			continue
		}
		sk := r.ProfileLink + "#" + r.Team
		if seen[sk] {
			continue
		}
		seen[sk] = true
		stats := make(map[string]types.AttributeValue, len(r.Stats))
		for k, v := range r.Stats {
			stats[k] = s(v)
		}
		item := map[string]types.AttributeValue{
			"LeagueSeason": s(r.League + "#" + r.Season),
			"PlayerTeam":   s(sk),
			"League":       s(r.League),
			"Season":       s(r.Season),
			"Player":       s(r.Player), // display string
			"PlayerName":   s(r.PlayerName),
			"Role":         s(string(r.Role)),
			"ProfileLink":  s(r.ProfileLink),
			"Stats":        &types.AttributeValueMemberM{Value: stats},
			"UpdatedAt":    &types.AttributeValueMemberN{Value: now},
		}
		putOpt(item, "Rank", r.Rank)
		putOpt(item, "Team", r.Team)
		putOpt(item, "Position", r.Position)
		items = append(items, item)
	}
	return d.writeAll(ctx, d.Tables.Roster, "roster rows", items)
}

// Facts: PK=ProfileLink
func (d *Dynamo) PutFacts(ctx context.Context, facts []ep.PlayerFacts) error {
	if d.Tables.Facts == "" || len(facts) == 0 {
		return nil
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	items := make([]map[string]types.AttributeValue, 0, len(facts))
	for _, f := range facts {
		if f.ProfileLink == "" {
			continue
		}
		item := map[string]types.AttributeValue{
			"ProfileLink": s(f.ProfileLink),
			"PlayerName":  s(f.PlayerName),
			"UpdatedAt":   &types.AttributeValueMemberN{Value: now},
		}
		if f.DateOfBirth != nil {
			item["DateOfBirth"] = s(f.DateOfBirth.Format("2006-01-02"))
		}
		putOpt(item, "Nation", f.Nation)
		putOpt(item, "Position", f.Position)
		putOpt(item, "Shoots", f.Shoots)
		putOpt(item, "Rights", f.Rights)
		putNum(item, "HeightCM", f.HeightCM)
		putNum(item, "WeightKG", f.WeightKG)
		if f.Draft != nil {
			item["Draft"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"Round":   s(f.Draft.Round),
				"Overall": s(f.Draft.Overall),
				"Year":    s(f.Draft.Year),
			}}
		}
		// string sets may not be empty
		if len(f.PlayerTypes) > 0 {
			item["PlayerTypes"] = &types.AttributeValueMemberSS{Value: dedup(f.PlayerTypes)}
		}
		if len(f.Highlights) > 0 {
			item["Highlights"] = &types.AttributeValueMemberSS{Value: dedup(f.Highlights)}
		}
		if f.Description != nil {
			item["Description"] = s(*f.Description)
		}
		items = append(items, item)
	}
	return d.writeAll(ctx, d.Tables.Facts, "facts", items)
}

// Stat lines: PK=PlayerName, SK=Category#Season#Team#League
func (d *Dynamo) PutStatLines(ctx context.Context, lines []ep.StatLine) error {
	if d.Tables.Stats == "" || len(lines) == 0 {
		return nil
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	seen := map[string]bool{}
	items := make([]map[string]types.AttributeValue, 0, len(lines))
	for _, l := range lines {
		if l.PlayerName == "" || l.Season == "" {
			continue
		}
		sk := strings.Join([]string{string(l.Category), l.Season, l.Team, l.League}, "#")
		// a batch may not hold the same key twice
		if seen[l.PlayerName+"|"+sk] {
			continue
		}
		seen[l.PlayerName+"|"+sk] = true
		item := map[string]types.AttributeValue{
			"PlayerName": s(l.PlayerName),
			"SK":         s(sk),
			"Category":   s(string(l.Category)),
			"Season":     s(l.Season),
			"UpdatedAt":  &types.AttributeValueMemberN{Value: now},
		}
		putOpt(item, "Team", l.Team)
		putOpt(item, "League", l.League)
		putNum(item, "GP", l.GP)
		putNum(item, "G", l.G)
		putNum(item, "A", l.A)
		putNum(item, "TP", l.TP)
		putNum(item, "PIM", l.PIM)
		putNum(item, "PlusMinus", l.PlusMinus)
		items = append(items, item)
	}
	return d.writeAll(ctx, d.Tables.Stats, "stat lines", items)
}

// Team roster: PK=TeamSeason (team#season), SK=ProfileLink
func (d *Dynamo) PutTeamRoster(ctx context.Context, entries []nhl.TeamRosterEntry) error {
	if d.Tables.Team == "" || len(entries) == 0 {
		return nil
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	items := make([]map[string]types.AttributeValue, 0, len(entries))
	for _, e := range entries {
		if e.ProfileLink == "" || e.Team == "" {
			continue
		}
		item := map[string]types.AttributeValue{
			"TeamSeason":  s(e.Team + "#" + e.Season),
			"ProfileLink": s(e.ProfileLink),
			"PlayerName":  s(e.PlayerName),
			"Position":    s(e.Position),
			"Team":        s(e.Team),
			"Season":      s(e.Season),
			"UpdatedAt":   &types.AttributeValueMemberN{Value: now},
		}
		putOpt(item, "ImageURL", e.ImageURL)
		items = append(items, item)
	}
	return d.writeAll(ctx, d.Tables.Team, "team roster", items)
}

// LoadRosterMetadata reads one league season back and dedups it to profile identities.
func (d *Dynamo) LoadRosterMetadata(ctx context.Context, league, season string) ([]ep.PlayerMetadata, error) {
	var recs []ep.RosterRecord
	var start map[string]types.AttributeValue
	for {
		out, err := d.API.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(d.Tables.Roster),
			KeyConditionExpression: aws.String("#pk = :v"),
			ExpressionAttributeNames: map[string]string{
				"#pk": "LeagueSeason",
				"#r":  "Role",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": s(league + "#" + season),
			},
			ProjectionExpression: aws.String("PlayerName, #r, ProfileLink"),
			ExclusiveStartKey:    start,
		})
		if err != nil {
			return nil, fmt.Errorf("query roster %s %s: %w", league, season, err)
		}
		for _, it := range out.Items {
			recs = append(recs, ep.RosterRecord{
				PlayerName:  attrS(it, "PlayerName"),
				Role:        ep.Role(attrS(it, "Role")),
				ProfileLink: attrS(it, "ProfileLink"),
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	return ep.PlayersMetadata(recs), nil
}

func attrS(it map[string]types.AttributeValue, k string) string {
	if v, ok := it[k].(*types.AttributeValueMemberS); ok {
		return strings.TrimSpace(v.Value)
	}
	return ""
}

func (d *Dynamo) writeAll(ctx context.Context, table, what string, items []map[string]types.AttributeValue) error {
	for i := 0; i < len(items); i += maxBatch {
		end := i + maxBatch
		if end > len(items) {
			end = len(items)
		}
		reqs := make([]types.WriteRequest, 0, end-i)
		for _, item := range items[i:end] {
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := d.batchWriteWithRetry(ctx, table, reqs); err != nil {
			return fmt.Errorf("batch write %s: %w", what, err)
		}
	}
	return nil
}

func (d *Dynamo) batchWriteWithRetry(ctx context.Context, table string, reqs []types.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{table: reqs},
	}
	const maxAttempts = 6
	step := d.RetryBackoff
	backoff := step

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := d.API.BatchWriteItem(ctx, input)
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		input.RequestItems = out.UnprocessedItems
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		if backoff < 2*time.Second {
			backoff += step
		}
	}
	return fmt.Errorf("unprocessed items remained after retries for table %s", table)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
