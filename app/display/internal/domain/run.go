package domain

import (
	"time"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
)

// RunSummary 运行记录摘要
type RunSummary struct {
	ID        string    `json:"id"`
	InputType string    `json:"inputType"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Title     string    `json:"title,omitempty"`
	PickCount int       `json:"pickCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Run 运行记录详情
type Run struct {
	ID        string               `json:"id"`
	InputType string               `json:"inputType"`
	Status    string               `json:"status"`
	Error     string               `json:"error,omitempty"`
	Report    *model.SummaryReport `json:"report,omitempty"`
	Trace     []string             `json:"trace"`
	CreatedAt time.Time            `json:"createdAt"`
}
