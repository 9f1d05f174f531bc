package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/ezpickup/services/order/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type OrderDocument struct {
	ID            uint                 `json:"id"`
	OrderNumber   string               `json:"order_number"`
	StoreID       uint                 `json:"store_id"`
	StoreName     string               `json:"store_name,omitempty"`
	CustomerID    *uint                `json:"customer_id,omitempty"`
	CustomerName  string               `json:"customer_name,omitempty"`
	CustomerPhone string               `json:"customer_phone,omitempty"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	FinalAmount   string               `json:"final_amount"`
	MenuNames     []string             `json:"menu_names"`
	PickupTime    time.Time            `json:"pickup_time"`
	CreatedAt     time.Time            `json:"created_at"`
}

func NewDocument(o *models.Order, storeName string) OrderDocument {
	doc := OrderDocument{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		StoreID:       o.StoreID,
		StoreName:     storeName,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		FinalAmount:   o.FinalAmount.String(),
		PickupTime:    o.PickupTime,
		CreatedAt:     o.CreatedAt,
	}
	if o.CustomerName != nil {
		doc.CustomerName = *o.CustomerName
	}
	if o.CustomerPhone != nil {
		doc.CustomerPhone = *o.CustomerPhone
	}
	for _, it := range o.Items {
		doc.MenuNames = append(doc.MenuNames, it.MenuName)
	}
	return doc
}

type OrderIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func (ix *OrderIndex) IndexOrder(ctx context.Context, doc OrderDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("index order: encode: %w", err)
	}

	res, err := ix.ES.Index(
		ix.Index,
		bytes.NewReader(body),
		ix.ES.Index.WithContext(ctx),
		ix.ES.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index order: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index order: %s", res.Status())
	}
	return nil
}

// SearchOrders runs a full-text query scoped to one store.
func (ix *OrderIndex) SearchOrders(ctx context.Context, storeID uint, query string, from, size int) (int64, []OrderDocument, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"store_id": storeID}},
				},
				"must": []any{
					map[string]any{"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"order_number^3", "customer_name^2", "customer_phone", "menu_names"},
						"fuzziness": "AUTO",
					}},
				},
			},
		},
		"sort": []any{
			map[string]any{"created_at": map[string]any{"order": "desc"}},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search orders: encode: %w", err)
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Index),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search orders: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source OrderDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search orders: decode: %w", err)
	}

	docs := make([]OrderDocument, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
