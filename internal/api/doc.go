// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go              — Handler с DI (сервис work requests, logger)
//   - routes.go               — регистрация маршрутов
//   - middleware.go           — middleware (recovery, correlation id, logging)
//   - response.go             — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                  — Data Transfer Objects (request/response)
//   - work_request_handler.go — обработчики для /work-requests
//
// Создание work request сохраняет запись и публикует WorkRequestCreated;
// correlation id берётся из заголовка X-Correlation-Id или генерируется
// и возвращается в том же заголовке.
package api
