// Package dynamo implements the statistics, record, and link store ports on
// DynamoDB. Counter and duration updates use per-field atomic update
// expressions, so concurrent writers never lose increments; list appends use
// list_append the same way. Durations are stored as integer nanoseconds.
package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/couchcryptid/listing-weather-etl/internal/config"
	"github.com/couchcryptid/listing-weather-etl/internal/domain"
)

// api is the slice of the DynamoDB client the store uses.
type api interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store implements domain.StatsStore, domain.RecordStore, and
// domain.LinkStore over three DynamoDB tables.
type Store struct {
	client          api
	statsTable      string
	propertiesTable string
	linksTable      string
}

// New creates a Store from the service configuration. A non-empty endpoint
// points the client at a local DynamoDB with static throwaway credentials.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.DynamoEndpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})

	return &Store{
		client:          client,
		statsTable:      cfg.StatsTable,
		propertiesTable: cfg.PropertiesTable,
		linksTable:      cfg.LinksTable,
	}, nil
}

func (s *Store) CreateRun(ctx context.Context, stats domain.RunStatistics) error {
	item, err := attributevalue.MarshalMap(stats)
	if err != nil {
		return fmt.Errorf("marshal run statistics: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.statsTable),
		Item:      item,
	})
	return err
}

func (s *Store) GetRun(ctx context.Context, runID string) (domain.RunStatistics, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.statsTable),
		Key:            runKey(runID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.RunStatistics{}, err
	}
	if len(out.Item) == 0 {
		return domain.RunStatistics{}, domain.ErrRunNotFound
	}

	var stats domain.RunStatistics
	if err := attributevalue.UnmarshalMap(out.Item, &stats); err != nil {
		return domain.RunStatistics{}, fmt.Errorf("unmarshal run statistics: %w", err)
	}
	return stats, nil
}

// IncrementCounter adds delta to one counter field, initializing it to zero on
// first touch so increments never require a prior create.
func (s *Store) IncrementCounter(ctx context.Context, runID string, field domain.CounterField, delta int) error {
	return s.addNumeric(ctx, runID, string(field), strconv.Itoa(delta))
}

func (s *Store) AddDuration(ctx context.Context, runID string, field domain.DurationField, delta time.Duration) error {
	return s.addNumeric(ctx, runID, string(field), strconv.FormatInt(int64(delta), 10))
}

func (s *Store) addNumeric(ctx context.Context, runID, field, delta string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.statsTable),
		Key:              runKey(runID),
		UpdateExpression: aws.String("SET #f = if_not_exists(#f, :zero) + :inc"),
		ExpressionAttributeNames: map[string]string{
			"#f": field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc":  &types.AttributeValueMemberN{Value: delta},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})
	return err
}

func (s *Store) AppendJobDetail(ctx context.Context, runID string, detail domain.JobDetail) error {
	return s.appendToList(ctx, runID, string(domain.ListBackgroundJobDetails), detail)
}

func (s *Store) AppendPropertyRuntime(ctx context.Context, runID string, rt domain.PropertyRuntime) error {
	return s.appendToList(ctx, runID, string(domain.ListPropertyRuntimes), rt)
}

func (s *Store) appendToList(ctx context.Context, runID, field string, item any) error {
	av, err := attributevalue.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", field, err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.statsTable),
		Key:              runKey(runID),
		UpdateExpression: aws.String("SET #f = list_append(if_not_exists(#f, :empty), :item)"),
		ExpressionAttributeNames: map[string]string{
			"#f": field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":item":  &types.AttributeValueMemberL{Value: []types.AttributeValue{av}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	return err
}

func (s *Store) SetAverages(ctx context.Context, runID string, avg domain.Averages) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.statsTable),
		Key:       runKey(runID),
		UpdateExpression: aws.String(
			"SET average_time_per_property_background = :bg, average_api_call_time = :api, average_parse_time_per_target_property = :parse"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bg":    durationAttr(avg.TimePerPropertyBackground),
			":api":   durationAttr(avg.APICallTime),
			":parse": durationAttr(avg.ParseTimePerTargetProperty),
		},
	})
	return err
}

func (s *Store) SetRunTotals(ctx context.Context, runID string, totals domain.RunTotals) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.statsTable),
		Key:       runKey(runID),
		UpdateExpression: aws.String(
			"SET total_target_parsing_time = :parse, total_run_time = :run, target_properties_processed = :count"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":parse": durationAttr(totals.TotalTargetParsingTime),
			":run":   durationAttr(totals.TotalRunTime),
			":count": &types.AttributeValueMemberN{Value: strconv.Itoa(totals.TargetPropertiesProcessed)},
		},
	})
	return err
}

func (s *Store) PutProperty(ctx context.Context, p domain.Property) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal property: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.propertiesTable),
		Item:      item,
	})
	return err
}

// PutForecast updates the forecast attributes on the existing property item,
// leaving the listing attributes untouched.
func (s *Store) PutForecast(ctx context.Context, f domain.RecordForecast) error {
	nextPeriod, err := attributevalue.Marshal(f.NextPeriod)
	if err != nil {
		return fmt.Errorf("marshal next period: %w", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.propertiesTable),
		Key:       propertyKey(f.PropertyID),
		UpdateExpression: aws.String(
			"SET weather_data = :doc, next_period_weather_data = :next, next_period_forecast = :detail, forecast_updated_at = :at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":doc":    &types.AttributeValueMemberS{Value: string(f.Document)},
			":next":   nextPeriod,
			":detail": &types.AttributeValueMemberS{Value: f.NextPeriodDetail},
			":at":     &types.AttributeValueMemberS{Value: f.UpdatedAt.UTC().Format(time.RFC3339)},
		},
	})
	return err
}

func (s *Store) GetForecast(ctx context.Context, propertyID string) (domain.RecordForecast, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.propertiesTable),
		Key:       propertyKey(propertyID),
	})
	if err != nil {
		return domain.RecordForecast{}, err
	}
	if len(out.Item) == 0 {
		return domain.RecordForecast{}, domain.ErrForecastNotFound
	}

	doc, ok := out.Item["weather_data"].(*types.AttributeValueMemberS)
	if !ok {
		return domain.RecordForecast{}, domain.ErrForecastNotFound
	}

	forecast := domain.RecordForecast{
		PropertyID: propertyID,
		Document:   []byte(doc.Value),
	}
	if next, ok := out.Item["next_period_weather_data"]; ok {
		if err := attributevalue.Unmarshal(next, &forecast.NextPeriod); err != nil {
			return domain.RecordForecast{}, fmt.Errorf("unmarshal next period: %w", err)
		}
	}
	if detail, ok := out.Item["next_period_forecast"].(*types.AttributeValueMemberS); ok {
		forecast.NextPeriodDetail = detail.Value
	}
	if at, ok := out.Item["forecast_updated_at"].(*types.AttributeValueMemberS); ok {
		if ts, err := time.Parse(time.RFC3339, at.Value); err == nil {
			forecast.UpdatedAt = ts
		}
	}
	return forecast, nil
}

func (s *Store) PutLink(ctx context.Context, link domain.ForecastLink) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.linksTable),
		Item: map[string]types.AttributeValue{
			"property_id":  &types.AttributeValueMemberS{Value: link.PropertyID},
			"forecast_url": &types.AttributeValueMemberS{Value: link.ForecastURL},
		},
	})
	return err
}

// ListLinks scans the full link table, following pagination.
func (s *Store) ListLinks(ctx context.Context) ([]domain.ForecastLink, error) {
	var links []domain.ForecastLink
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.linksTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			link := domain.ForecastLink{}
			if id, ok := item["property_id"].(*types.AttributeValueMemberS); ok {
				link.PropertyID = id.Value
			}
			if url, ok := item["forecast_url"].(*types.AttributeValueMemberS); ok {
				link.ForecastURL = url.Value
			}
			if link.PropertyID != "" {
				links = append(links, link)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return links, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func runKey(runID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"run_id": &types.AttributeValueMemberS{Value: runID},
	}
}

func propertyKey(propertyID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"property_id": &types.AttributeValueMemberS{Value: propertyID},
	}
}
