package model

import "time"

// Member はジムの会員を表す。
type Member struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Plan      string
	CreatedAt time.Time
}

// Transaction は模擬決済の記録を表す。実際の決済処理は行わない。
type Transaction struct {
	ID         string
	MemberName string
	Plan       string
	Amount     float64
	CardLast4  string
	Status     string
	CreatedAt  time.Time
}

// TransactionStatusCompleted は模擬決済の完了ステータス。
const TransactionStatusCompleted = "completed"
