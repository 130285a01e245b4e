package policy

// Item is one navigation entry under a section.
type Item struct {
	Name string
	Path string
}

// Section is a top-level navigation group with its root path.
type Section struct {
	ID    string
	Label string
	Path  string
	Items []Item
}

// Section identifiers referenced by hide rules.
const (
	SectionHome       = "inicio"
	SectionSmartCare  = "smartcare"
	SectionAMS        = "smartcare-ams"
	SectionSmartBuild = "smartbuild"
	SectionTimeSheet  = "timesheet"
	SectionAdmin      = "admin"
	SectionUtils      = "utils"
)

// defaultCatalog is the canonical navigation tree. Immutable after
// startup; safe for unsynchronized concurrent reads.
var defaultCatalog = []Section{
	{
		ID:    SectionHome,
		Label: "Início",
		Path:  "/main",
	},
	{
		ID:    SectionSmartCare,
		Label: "SmartCare",
		Path:  "/main/smartcare",
		Items: []Item{
			{Name: "Chamados", Path: "/main/smartcare/tickets"},
			{Name: "Horas Apontadas", Path: "/main/smartcare/hours"},
		},
	},
	{
		ID:    SectionAMS,
		Label: "SmartCare - AMS",
		Path:  "/main/ams",
		Items: []Item{
			{Name: "Gestão AMS", Path: "/main/smartcare/ams"},
			{Name: "Chamados AMS", Path: "/main/smartcare/ams/tickets"},
		},
	},
	{
		ID:    SectionSmartBuild,
		Label: "SmartBuild",
		Path:  "/main/smartbuild",
		Items: []Item{
			{Name: "Projetos", Path: "/main/smartbuild/projects"},
			{Name: "Contratos", Path: "/main/smartbuild/contracts"},
		},
	},
	{
		ID:    SectionTimeSheet,
		Label: "TimeSheet",
		Path:  "/main/timesheet",
		Items: []Item{
			{Name: "Lançamentos", Path: "/main/timesheet/entries"},
			{Name: "Resumo Mensal", Path: "/main/timesheet/summary"},
		},
	},
	{
		ID:    SectionAdmin,
		Label: "Administrativo",
		Path:  "/main/admin",
		Items: []Item{
			{Name: "Parceiros", Path: "/main/admin/partners"},
			{Name: "Usuários", Path: "/main/admin/users"},
			{Name: "Regras de SLA", Path: "/main/admin/sla-rules"},
		},
	},
	{
		ID:    SectionUtils,
		Label: "Utilitários",
		Path:  "/main/utils",
		Items: []Item{
			{Name: "Relatórios", Path: "/main/utils/reports"},
			{Name: "Anexos", Path: "/main/utils/files"},
		},
	},
}

// DefaultCatalog returns the canonical navigation tree.
func DefaultCatalog() []Section {
	return defaultCatalog
}
