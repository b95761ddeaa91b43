package main

import "github.com/mark3labs/mcp-go/mcp"

func createGetSentimentTool() mcp.Tool {
	return mcp.NewTool("get_sentiment",
		mcp.WithDescription("Social sentiment for a crypto topic or coin: score, engagement, mentions and top creators"),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Topic or coin name, e.g. bitcoin"),
		),
	)
}

func createGetMarketSnapshotsTool() mcp.Tool {
	return mcp.NewTool("get_market_snapshots",
		mcp.WithDescription("Current price, market cap, volume and 24h change for one or more coins"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Comma-separated coin ids, e.g. bitcoin,ethereum"),
		),
	)
}

func createGetComparablesTool() mcp.Tool {
	return mcp.NewTool("get_comparables",
		mcp.WithDescription("Up to three larger coins from the same categories with projected prices at their market caps"),
		mcp.WithString("token_id",
			mcp.Required(),
			mcp.Description("Coin id of the token to compare"),
		),
		mcp.WithNumber("market_cap",
			mcp.Required(),
			mcp.Description("Current market cap of the token"),
		),
		mcp.WithNumber("current_price",
			mcp.Description("Current price of the token (looked up when omitted)"),
		),
	)
}
