package model

import "time"

// HourLabelLayout renders a bucket start as a two-digit 12-hour clock label.
const HourLabelLayout = "03 PM"

// HourlyBucket is the traffic rollup of one calendar hour.
type HourlyBucket struct {
	Start        time.Time `json:"start"`
	Hour         string    `json:"hour"`
	CustomersIn  int       `json:"customers_in"`
	CustomersOut int       `json:"customers_out"`
	NetChange    int       `json:"net_change"`
	Count        int       `json:"count"`
}
