package aggregator

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
)

// Tool argument defaults applied when a caller omits them.
const (
	DefaultDays       = 1
	DefaultMaxResults = 100
)

// ToolName is the name agents call the crawl by.
const ToolName = "fetch_news"

// FetchNewsArgs are the fetch_news arguments as sent by agents.
type FetchNewsArgs struct {
	Company    string `mapstructure:"company"     json:"company"`
	Industry   string `mapstructure:"industry"    json:"industry"`
	Days       *int   `mapstructure:"days"        json:"days,omitempty"`
	MaxResults *int   `mapstructure:"max_results" json:"max_results,omitempty"`
}

// DecodeArgs reads loosely typed tool arguments. Numbers may arrive as JSON
// floats or strings.
func DecodeArgs(raw map[string]any) (FetchNewsArgs, error) {
	var args FetchNewsArgs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return args, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return args, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return args, nil
}

// Request converts the arguments, filling defaults.
func (a FetchNewsArgs) Request() Request {
	req := Request{
		Company:    a.Company,
		Industry:   a.Industry,
		Days:       DefaultDays,
		MaxResults: DefaultMaxResults,
	}
	if a.Days != nil {
		req.Days = *a.Days
	}
	if a.MaxResults != nil {
		req.MaxResults = *a.MaxResults
	}
	return req
}

// FetchNews is the tool-call entry point: it returns the labelled mapping
// item-1 ... item-N, or ErrInvalidArgument.
func (a *Aggregator) FetchNews(ctx context.Context, args FetchNewsArgs) (domain.LabeledItems, error) {
	res, err := a.Run(ctx, args.Request())
	if err != nil {
		return nil, err
	}
	return domain.LabeledItems(res.Items), nil
}
