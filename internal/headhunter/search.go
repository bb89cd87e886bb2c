package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchPath = "/vacancies"
)

// SearchParams are the query parameters of GET /vacancies. Fields are encoded
// by their hhparam tag.
type SearchParams struct {
	Text        string   `hhparam:"text" mapstructure:"text"`
	Areas       []int    `hhparam:"area" mapstructure:"areas"`
	OrderBy     string   `hhparam:"order_by" mapstructure:"order-by"`
	Employer    uint     `hhparam:"employer_id" mapstructure:"employer-id"`
	SearchField string   `hhparam:"search_field" mapstructure:"search-field"`
	Schedules   []string `hhparam:"schedule" mapstructure:"schedules"`
	PerPage     string   `hhparam:"per_page" mapstructure:"per-page"`
	Experience  string   `hhparam:"experience" mapstructure:"experience"`
	Period      uint     `hhparam:"period" mapstructure:"period"`
}

func (c *Client) search(ctx context.Context, params *SearchParams, limit int) (*Vacancies, error) {
	if params == nil {
		params = &SearchParams{}
	}

	// Set per_page max as possible. It should be faster.
	if params.PerPage == "" {
		params.PerPage = perPage
	}

	items, err := c.GetItems(ctx, c.APIURL+SearchPath, buildParams(params), limit)
	if err != nil {
		return nil, fmt.Errorf("search vacancies: %w", err)
	}

	var vacancies []*Vacancy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &vacancies,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode vacancies: %w", err)
	}

	return &Vacancies{
		Items: vacancies,
	}, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()

	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("hhparam")
		if key == "" {
			continue
		}

		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case []int:
			for _, item := range v {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
