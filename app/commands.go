package app

import (
	tele "gopkg.in/telebot.v4"

	"github.com/felipevm/vendasbot/conversation"
	coretelegram "github.com/felipevm/vendasbot/core/telegram"
	"github.com/felipevm/vendasbot/core/telegram/commands"
	"github.com/felipevm/vendasbot/core/telegram/helpers"
	"github.com/felipevm/vendasbot/core/telegram/router"
)

const helpText = `🤝 Assistente de vendas — comandos disponíveis:

/followup — agendar um follow-up
/visita — registrar uma visita
/interacao — registrar uma interação
/contrato — registrar um contrato
/lembrete — criar um lembrete
/editar — editar um registro
/excluir — excluir um registro
/filtrar — filtrar registros
/relatorio — relatório por período
/busca — buscar clientes em potencial
/rota — montar rota de visitas
/cancelar — cancelar a operação atual`

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Description: "Apresentação do assistente",
		Handler: func(c tele.Context) error {
			return helpers.SendText(c, "👋 Olá! Sou seu assistente de vendas.\n\n"+helpText)
		},
	})
	reg.RegisterCommand("/help", commands.Command{
		Description: "Lista de comandos",
		Handler: func(c tele.Context) error {
			return helpers.SendText(c, helpText)
		},
		Aliases: []string{"/ajuda"},
	})
	reg.RegisterCommand("/cancelar", commands.Command{
		Description: "Cancelar a operação atual",
		Handler:     a.engine.CancelHandler(),
	})

	entries := []struct {
		command, flow, description string
	}{
		{"/followup", "followup", "Agendar um follow-up"},
		{"/visita", "visita", "Registrar uma visita"},
		{"/interacao", "interacao", "Registrar uma interação"},
		{"/contrato", "contrato", "Registrar um contrato"},
		{"/lembrete", "lembrete", "Criar um lembrete"},
		{"/editar", "editar", "Editar um registro"},
		{"/excluir", "excluir", "Excluir um registro"},
		{"/filtrar", "filtrar", "Filtrar registros"},
		{"/relatorio", "relatorio", "Relatório por período"},
		{"/busca", "busca", "Buscar clientes em potencial"},
		{"/rota", "rota", "Montar rota de visitas"},
	}
	for _, e := range entries {
		reg.RegisterCommand(e.command, commands.Command{
			Description: e.description,
			Handler:     a.engine.EntryHandler(e.flow),
		})
	}
}

func routerRoutes(engine *conversation.Engine, reg *coretelegram.Registry, adminID int64) []coretelegram.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: adminID})
	routes = append(routes, router.TextRoutes(engine, reg, router.TextOptions{
		UnknownText: func(c tele.Context) error {
			return helpers.SendText(c, "Não entendi. Envie /help para ver os comandos.")
		},
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	return routes
}
