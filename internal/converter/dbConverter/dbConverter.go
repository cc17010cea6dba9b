package dbConverter

import (
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/dbModel"
)

func ConvertPosition(dbPosition dbModel.Position) model.Position {
	return model.Position{
		Ticker:       dbPosition.Ticker,
		Name:         dbPosition.Name,
		Category:     dbPosition.Category,
		Quantity:     dbPosition.Quantity,
		TargetWeight: dbPosition.TargetWeight,
	}
}

func ConvertHistoryRecord(dbRecord dbModel.HistoryRecord) model.HistoryRecord {
	return model.HistoryRecord{
		Date:       dbRecord.Date,
		TotalAsset: dbRecord.TotalAsset,
		ProfitRate: dbRecord.ProfitRate,
		Memo:       dbRecord.Memo,
	}
}
