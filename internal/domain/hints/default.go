package hints

import "github.com/okian/candle/internal/domain/puzzle"

var defaultDefinitions = []Definition{
	{ID: puzzle.ClueSector, Label: "SECTOR", Cost: 50, Category: CategoryText},
	{ID: puzzle.ClueMarketCap, Label: "MKT CAP", Cost: 50, Category: CategoryText},
	{ID: puzzle.ClueHQCountry, Label: "HQ COUNTRY", Cost: 75, Category: CategoryText},
	{ID: string(puzzle.OneMonth), Label: "1M CHART", Cost: 75, Category: CategoryChart, Timeframe: puzzle.OneMonth},
	{ID: string(puzzle.FiveYear), Label: "5Y CHART", Cost: 100, Category: CategoryChart, Timeframe: puzzle.FiveYear},
	{ID: puzzle.ClueDescription, Label: "DESCRIPTION", Cost: 100, Category: CategoryText},
	{ID: puzzle.ClueHighLow, Label: "52W HIGH/LOW", Cost: 100, Category: CategoryText},
	{ID: string(puzzle.TenYear), Label: "10Y CHART", Cost: 125, Category: CategoryChart, Timeframe: puzzle.TenYear},
	{ID: puzzle.ClueIndustry, Label: "INDUSTRY", Cost: 125, Category: CategoryText},
	{ID: puzzle.ClueIPOYear, Label: "IPO YEAR", Cost: 150, Category: CategoryText},
	{ID: puzzle.CluePriceAxis, Label: "PRICE AXIS", Cost: 150, Category: CategoryPrice},
}

var defaultCatalog = mustCatalog(defaultDefinitions)

func mustCatalog(defs []Definition) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the published catalog.
func Default() *Catalog {
	return defaultCatalog
}
