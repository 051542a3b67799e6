package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/roofline/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250301_create_auth_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Permission{}, &models.Role{}, &models.RolePermission{})
			},
		},
		{
			ID: "20250301_create_funnel_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Lead{}, &models.Customer{}, &models.RoofPhoto{}, &models.RoofMeasurement{})
			},
		},
		{
			ID: "20250308_create_catalog_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.LineItem{}, &models.Macro{}, &models.MacroLineItem{}, &models.GeographicPricing{})
			},
		},
		{
			ID: "20250308_create_estimate_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.DetailedEstimate{})
			},
		},
		{
			ID: "20250315_create_job_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Job{}, &models.JobStatusEvent{}, &models.Crew{}, &models.CrewMember{})
			},
		},
		{
			ID: "20250315_create_billing_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.BillingTemplate{}, &models.BillingSchedule{}, &models.Invoice{})
			},
		},
		{
			ID: "20250412_create_notification_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Notification{})
			},
		},
		{
			ID: "20250520_add_service_territory",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.ServiceTerritory{})
			},
		},
		{
			ID: "20250607_index_estimate_status_lead",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_detailed_estimates_lead_status ON detailed_estimates (lead_id, status)").Error
			},
		},
		{
			ID: "20250614_index_billing_trigger",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_billing_schedules_job_trigger ON billing_schedules (job_id, trigger_status)").Error
			},
		},
	})
	return m.Migrate()
}
