// Package cli реализует инструмент командной строки HRM.
//
// # Обзор
//
// CLI работает с HRM API через HTTP и не импортирует внутренние пакеты
// системы.
//
// ## Client
//
// HTTP-клиент для API. Инкапсулирует запросы, парсинг ответов
// (DataResponse, ListResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	created, err := client.CreateWorkRequest(cli.CreateWorkRequestRequest{Title: "Laptop"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr:
// hrm workrequest list --json | jq .
//
// ## Commands
//
//   - workrequest: create, show, list
//
// Группа создаётся через NewWorkRequestCmd, принимающую clientFn и
// outputFn — замыкания для ленивого создания Client и Output после
// парсинга PersistentFlags.
package cli
