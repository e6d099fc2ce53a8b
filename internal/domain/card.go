package domain

// Card is one dashboard summary figure.
// PercentageChange is nil when there is no prior data to compare against.
type Card struct {
	Title            string   `json:"title"`
	Value            float64  `json:"value"`
	Color            string   `json:"color"`
	Dollars          bool     `json:"dollars"`
	PercentageChange *float64 `json:"percentageChange"`
}

// Card titles.
const (
	CardTotalVolume     = "Total Volume"
	CardTotalTransfers  = "Total Transactions"
	CardUniqueAddresses = "Unique Addresses"
	CardAverageTransfer = "Average Transfer"
	CardInflowVolume    = "Inflow Volume"
	CardOutflowVolume   = "Outflow Volume"
)
