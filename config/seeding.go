package config

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/roofline/models"
	"p9e.in/roofline/pkg/estimation"
)

// RunAllSeeding runs all seeding operations in the correct order.
// Each step skips rows that already exist, so re-running is safe.
func RunAllSeeding(db *gorm.DB) error {
	log.Println("=== Starting Database Seeding ===")

	log.Println("[1/4] Seeding Permissions and Roles...")
	if err := SeedPermissions(db); err != nil {
		return err
	}

	log.Println("[2/4] Seeding Line Item Catalog...")
	if err := SeedCatalog(db); err != nil {
		return err
	}

	log.Println("[3/4] Seeding Billing Templates...")
	if err := SeedBillingTemplates(db); err != nil {
		return err
	}

	log.Println("[4/4] Seeding Geographic Pricing...")
	if err := SeedGeographicPricing(db); err != nil {
		return err
	}

	log.Println("=== Database Seeding Complete ===")
	return nil
}

// SeedPermissions creates default permissions and roles
func SeedPermissions(db *gorm.DB) error {
	permissions := []models.Permission{
		{Name: "lead:create", Resource: "lead", Action: "create", Description: "Create leads"},
		{Name: "lead:read", Resource: "lead", Action: "read", Description: "View leads"},
		{Name: "lead:update", Resource: "lead", Action: "update", Description: "Edit leads"},
		{Name: "lead:assign", Resource: "lead", Action: "assign", Description: "Assign leads to estimators"},

		{Name: "catalog:read", Resource: "catalog", Action: "read", Description: "View line items and macros"},
		{Name: "catalog:manage", Resource: "catalog", Action: "manage", Description: "Manage line items, macros and pricing profiles"},

		{Name: "measurement:create", Resource: "measurement", Action: "create", Description: "Submit photo measurements"},
		{Name: "measurement:read", Resource: "measurement", Action: "read", Description: "View roof measurements"},

		{Name: "estimate:create", Resource: "estimate", Action: "create", Description: "Price and create estimates"},
		{Name: "estimate:read", Resource: "estimate", Action: "read", Description: "View estimates"},
		{Name: "estimate:respond", Resource: "estimate", Action: "respond", Description: "Accept or reject estimates"},
		{Name: "estimate:export", Resource: "estimate", Action: "export", Description: "Export estimates to Excel"},

		{Name: "job:create", Resource: "job", Action: "create", Description: "Create jobs"},
		{Name: "job:read", Resource: "job", Action: "read", Description: "View jobs"},
		{Name: "job:update", Resource: "job", Action: "update", Description: "Edit jobs and transition status"},

		{Name: "billing:read", Resource: "billing", Action: "read", Description: "View billing schedules and invoices"},
		{Name: "billing:manage", Resource: "billing", Action: "manage", Description: "Apply templates, recalculate, manage invoices"},

		{Name: "crew:read", Resource: "crew", Action: "read", Description: "View crews"},
		{Name: "crew:manage", Resource: "crew", Action: "manage", Description: "Manage crews and assignments"},

		{Name: "report:read", Resource: "report", Action: "read", Description: "View pipeline and revenue reports"},

		{Name: "portal:read", Resource: "portal", Action: "read", Description: "Customer portal read access"},
	}

	byName := make(map[string]models.Permission, len(permissions))
	for _, p := range permissions {
		var existing models.Permission
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			p.ID = uuid.New()
			if err := db.Create(&p).Error; err != nil {
				return err
			}
			byName[p.Name] = p
			continue
		} else if err != nil {
			return err
		}
		byName[p.Name] = existing
	}

	roles := []struct {
		name        string
		description string
		level       int
		permissions []string
	}{
		{"admin", "Full back-office access", 0, nil}, // nil means every permission
		{"estimator", "Sales and estimation", 2, []string{
			"lead:create", "lead:read", "lead:update",
			"catalog:read", "measurement:create", "measurement:read",
			"estimate:create", "estimate:read", "estimate:respond", "estimate:export",
			"job:read", "report:read",
		}},
		{"office", "Office staff: jobs and billing", 2, []string{
			"lead:read", "lead:update", "lead:assign",
			"estimate:read", "job:create", "job:read", "job:update",
			"billing:read", "billing:manage", "crew:read", "report:read",
		}},
		{"crew_lead", "Field crew lead", 4, []string{
			"job:read", "job:update", "crew:read", "measurement:read",
		}},
		{"customer", "Customer portal", 5, []string{
			"portal:read",
		}},
	}

	for _, r := range roles {
		var existing models.Role
		err := db.Where("name = ?", r.name).First(&existing).Error
		if err == nil {
			continue // never rewrite an existing role's grants
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		role := models.Role{ID: uuid.New(), Name: r.name, Description: r.description, Level: r.level, IsActive: true}
		grants := r.permissions
		if grants == nil {
			for name := range byName {
				grants = append(grants, name)
			}
		}
		for _, name := range grants {
			if p, ok := byName[name]; ok {
				role.Permissions = append(role.Permissions, p)
			}
		}
		if err := db.Create(&role).Error; err != nil {
			return err
		}
		log.Printf("✅ Created role %s with %d permissions", role.Name, len(role.Permissions))
	}
	return nil
}

// SeedCatalog creates a starter line-item catalog and the standard asphalt
// replacement macro.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.LineItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	items := []models.LineItem{
		{Code: "TEAR-OFF", Name: "Tear-off existing roof (1 layer)", Category: "tearoff", Unit: "sq", QuantityFormula: "SQ", WasteFactor: 1, MaterialCost: 0, LaborCost: 55, EquipmentCost: 10, Taxable: false},
		{Code: "SHNG-ARCH", Name: "Architectural shingles", Category: "roofing", Unit: "bundle", QuantityFormula: "SQ * 3", WasteFactor: 1.10, MaterialCost: 38, LaborCost: 60, Taxable: true},
		{Code: "UNDERLAY", Name: "Synthetic underlayment", Category: "roofing", Unit: "sq", QuantityFormula: "SQ", WasteFactor: 1.05, MaterialCost: 18, LaborCost: 8, Taxable: true},
		{Code: "ICE-WATER", Name: "Ice & water shield at eaves and valleys", Category: "roofing", Unit: "lf", QuantityFormula: "EAVE + VAL", WasteFactor: 1.05, MaterialCost: 1.8, LaborCost: 0.9, Taxable: true},
		{Code: "DRIP-EDGE", Name: "Drip edge", Category: "flashing", Unit: "lf", QuantityFormula: "EAVE + RAKE", WasteFactor: 1.05, MaterialCost: 2.5, LaborCost: 1.5, Taxable: true},
		{Code: "RIDGE-CAP", Name: "Ridge cap shingles", Category: "roofing", Unit: "lf", QuantityFormula: "R + HIP", WasteFactor: 1.10, MaterialCost: 4.2, LaborCost: 2.8, Taxable: true},
		{Code: "VALLEY-MTL", Name: "Open valley metal", Category: "flashing", Unit: "lf", QuantityFormula: "VAL", WasteFactor: 1.10, MaterialCost: 5.5, LaborCost: 3.2, Taxable: true},
		{Code: "RIDGE-VENT", Name: "Ridge vent", Category: "ventilation", Unit: "lf", QuantityFormula: "R", WasteFactor: 1.05, MaterialCost: 8.5, LaborCost: 3.5, Taxable: true},
		{Code: "PIPE-BOOT", Name: "Pipe boot flashing", Category: "flashing", Unit: "each", QuantityFormula: "PIPE_COUNT", WasteFactor: 1, MaterialCost: 14, LaborCost: 22, Taxable: true},
		{Code: "BOX-VENT", Name: "Box vent replacement", Category: "ventilation", Unit: "each", QuantityFormula: "VENT_COUNT", WasteFactor: 1, MaterialCost: 28, LaborCost: 30, Taxable: true},
		{Code: "SKY-FLASH", Name: "Skylight flashing kit", Category: "flashing", Unit: "each", QuantityFormula: "SKYLIGHT_COUNT", WasteFactor: 1, MaterialCost: 85, LaborCost: 120, Taxable: true},
		{Code: "CHIM-FLASH", Name: "Chimney reflash", Category: "flashing", Unit: "each", QuantityFormula: "CHIMNEY_COUNT", WasteFactor: 1, MaterialCost: 95, LaborCost: 180, Taxable: true},
		{Code: "GUTTER-5K", Name: "5\" K-style gutters", Category: "gutters", Unit: "lf", QuantityFormula: "GUTTER_LF", WasteFactor: 1.05, MaterialCost: 6.5, LaborCost: 4.5, Taxable: true},
		{Code: "DOWNSPOUT", Name: "Downspouts", Category: "gutters", Unit: "each", QuantityFormula: "DS_COUNT", WasteFactor: 1, MaterialCost: 45, LaborCost: 35, Taxable: true},
		{Code: "DUMPSTER", Name: "Dumpster and haul-off", Category: "misc", Unit: "each", QuantityFormula: "1", WasteFactor: 1, MaterialCost: 0, LaborCost: 0, EquipmentCost: 450, Taxable: false},
		{Code: "PERMIT", Name: "Building permit", Category: "misc", Unit: "each", QuantityFormula: "1", WasteFactor: 1, MaterialCost: 0, LaborCost: 0, EquipmentCost: 250, Taxable: false},
	}
	for i := range items {
		items[i].IsActive = true
		if err := db.Create(&items[i]).Error; err != nil {
			return err
		}
	}
	log.Printf("✅ Seeded %d catalog line items", len(items))

	macro := models.Macro{
		Name:        "Asphalt Shingle Replacement",
		Description: "Full tear-off and architectural shingle replacement",
		RoofType:    "asphalt_shingle",
		IsActive:    true,
		CreatedBy:   "system",
	}
	if err := db.Create(&macro).Error; err != nil {
		return err
	}

	optional := map[string]bool{"SKY-FLASH": true, "CHIM-FLASH": true, "GUTTER-5K": true, "DOWNSPOUT": true}
	groups := map[string]string{
		"tearoff": "Tear-off", "roofing": "Roofing", "flashing": "Flashing",
		"ventilation": "Ventilation", "gutters": "Gutters", "misc": "Job Costs",
	}
	for i, item := range items {
		line := models.MacroLineItem{
			MacroID:             macro.ID,
			LineItemID:          item.ID,
			IsSelectedByDefault: !optional[item.Code],
			IsOptional:          optional[item.Code],
			SortOrder:           i + 1,
			GroupLabel:          groups[item.Category],
		}
		if err := db.Create(&line).Error; err != nil {
			return err
		}
	}
	log.Printf("✅ Seeded macro %q with %d lines", macro.Name, len(items))
	return nil
}

// SeedBillingTemplates creates the standard 40/50/10 milestone template.
func SeedBillingTemplates(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.BillingTemplate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	specs := []estimation.MilestoneSpec{
		{Name: "Deposit", Percentage: 40, TriggerStatus: string(models.JobStatusScheduled)},
		{Name: "Material Delivery", Percentage: 50, TriggerStatus: string(models.JobStatusMaterialsOrdered)},
		{Name: "Final Payment", Percentage: 10, TriggerStatus: string(models.JobStatusCompleted)},
	}
	raw, err := json.Marshal(specs)
	if err != nil {
		return err
	}
	template := models.BillingTemplate{
		Name:        "Standard 40/50/10",
		Description: "Deposit on scheduling, balance at material delivery, remainder on completion",
		Milestones:  raw,
		IsDefault:   true,
		IsActive:    true,
	}
	if err := db.Create(&template).Error; err != nil {
		return err
	}
	log.Printf("✅ Seeded billing template %q", template.Name)
	return nil
}

// SeedGeographicPricing creates the default market profile.
func SeedGeographicPricing(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.GeographicPricing{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	profile := models.GeographicPricing{
		Name:                "Default Market",
		Region:              "US National Average",
		MaterialMultiplier:  1,
		LaborMultiplier:     1,
		EquipmentMultiplier: 1,
		IsActive:            true,
	}
	if err := db.Create(&profile).Error; err != nil {
		return err
	}
	log.Printf("✅ Seeded geographic pricing profile %q", profile.Name)
	return nil
}
