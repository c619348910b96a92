package config

type BalanceType string

const (
	Income  BalanceType = "income"
	Outcome BalanceType = "outcome"
)

type Game string

const (
	CrashGame Game = "crash"
)
