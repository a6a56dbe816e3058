package postgres

import (
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).Set(d.Coefficient()), Exp: d.Exponent(), Valid: true}
}

// numericToDecimal - NULL, NaN и бесконечности дают fallback
func numericToDecimal(n pgtype.Numeric, fallback decimal.Decimal) decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return fallback
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
