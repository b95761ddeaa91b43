package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/signaldesk/signaldesk/internal/models"
)

type sentimentService interface {
	GetSentiment(ctx context.Context, topic string) (models.SentimentRecord, error)
}

type marketService interface {
	GetMarketSnapshots(ctx context.Context, ids []string) ([]models.MarketSnapshot, error)
}

type comparableService interface {
	GetComparables(ctx context.Context, source models.SourceToken) ([]models.ComparisonProjection, error)
}

func handleGetSentiment(svc sentimentService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		topic, err := request.RequireString("topic")
		if err != nil || strings.TrimSpace(topic) == "" {
			return mcp.NewToolResultError("topic parameter is required"), nil
		}

		record, err := svc.GetSentiment(ctx, topic)
		if err != nil {
			logger.Warn("get_sentiment failed", "topic", topic, "error", err)
			return mcp.NewToolResultErrorFromErr("sentiment lookup failed", err), nil
		}
		return jsonResult(record)
	}
}

func handleGetMarketSnapshots(svc marketService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("ids")
		if err != nil {
			return mcp.NewToolResultError("ids parameter is required"), nil
		}

		var ids []string
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return mcp.NewToolResultError("ids parameter is required"), nil
		}

		snapshots, err := svc.GetMarketSnapshots(ctx, ids)
		if err != nil {
			logger.Warn("get_market_snapshots failed", "ids", ids, "error", err)
			return mcp.NewToolResultErrorFromErr("market lookup failed", err), nil
		}
		return jsonResult(snapshots)
	}
}

func handleGetComparables(comparables comparableService, market marketService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tokenID, err := request.RequireString("token_id")
		if err != nil {
			return mcp.NewToolResultError("token_id parameter is required"), nil
		}
		marketCap, err := request.RequireFloat("market_cap")
		if err != nil {
			return mcp.NewToolResultError("market_cap parameter is required"), nil
		}

		source := models.SourceToken{ID: strings.TrimSpace(tokenID), MarketCap: marketCap}
		if price := request.GetFloat("current_price", -1); price >= 0 {
			source.CurrentPrice = price
		} else {
			snapshots, err := market.GetMarketSnapshots(ctx, []string{source.ID})
			if err != nil {
				return mcp.NewToolResultErrorFromErr("price lookup failed", err), nil
			}
			for _, s := range snapshots {
				if s.ID == source.ID {
					source.CurrentPrice = s.CurrentPrice
				}
			}
		}

		projections, err := comparables.GetComparables(ctx, source)
		if err != nil {
			logger.Warn("get_comparables failed", "token", source.ID, "error", err)
			return mcp.NewToolResultErrorFromErr("comparable lookup failed", err), nil
		}
		return jsonResult(projections)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
