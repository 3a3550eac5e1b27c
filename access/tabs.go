package access

// Dashboard tab identifiers. The set is closed: any other id is denied.
const (
	TabInicio         = "inicio"
	TabReportes       = "reportes"
	TabTiempos        = "tiempos"
	TabConsulta       = "consulta"
	TabCorrerias      = "correrias"
	TabPerfilLector   = "Perfillector"
	TabDBCliente      = "DBcliente"
	TabPolicia        = "policia"
	TabViernesBot     = "ViernesBot"
	TabDocumentos     = "documentos"
	TabNotificaciones = "notificaciones"
	TabConfiguracion  = "configuracion"
)

// MenuTab is an entry of the dashboard menu.
type MenuTab struct {
	ID    string
	Label string
}

// Menu is the dashboard menu in display order.
var Menu = []MenuTab{
	{ID: TabInicio, Label: "Inicio"},
	{ID: TabReportes, Label: "Reportes"},
	{ID: TabConsulta, Label: "Consulta"},
	{ID: TabPolicia, Label: "Policia"},
	{ID: TabDocumentos, Label: "Documentos"},
	{ID: TabNotificaciones, Label: "Notificaciones"},
	{ID: TabConfiguracion, Label: "Configuración"},
}

var everyone = []Role{RoleAdmin, RoleSupervisor, RoleProCalidad, RoleProfesional, RoleBasico}

func defaultTabs() map[string][]Role {
	return map[string][]Role{
		TabInicio:         everyone,
		TabReportes:       {RoleAdmin},
		TabTiempos:        {RoleAdmin, RoleSupervisor, RoleProCalidad, RoleProfesional},
		TabConsulta:       everyone,
		TabCorrerias:      everyone,
		TabPerfilLector:   everyone,
		TabDBCliente:      everyone,
		TabPolicia:        everyone,
		TabViernesBot:     everyone,
		TabDocumentos:     {RoleAdmin},
		TabNotificaciones: {RoleAdmin},
		TabConfiguracion:  {RoleAdmin},
	}
}

func defaultPermissions() map[Role][]Permission {
	return map[Role][]Permission{
		RoleAdmin:       {PermViewDashboard, PermViewReportes, PermViewDocumentos, PermViewNotificaciones, PermViewConfiguracion},
		RoleSupervisor:  {PermViewDashboard, PermViewReportes, PermViewDocumentos, PermViewNotificaciones},
		RoleProCalidad:  {PermViewDashboard, PermViewReportes, PermViewNotificaciones},
		RoleProfesional: {PermViewDashboard, PermViewReportes, PermViewDocumentos, PermViewNotificaciones},
		RoleBasico:      {PermViewDashboard, PermViewNotificaciones},
	}
}
