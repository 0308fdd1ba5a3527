// Package swagger holds the OpenAPI document of the device API, in the layout
// swag init writes from the handler annotations.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/archive/{mode}/{kind}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "archive"
                ],
                "summary": "List Archives",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "dataset, logs or store-backup",
                        "name": "kind",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/archive.Object"
                            }
                        }
                    }
                }
            }
        },
        "/audit/{mode}": {
            "get": {
                "description": "Reports items whose scanned quantity differs from the sum of their logged deltas. With repair=true drifted items are realigned to the ledger.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "audit"
                ],
                "summary": "Ledger Audit",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "boolean",
                        "description": "Realign drifted items",
                        "name": "repair",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Audit plan",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/containers": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "items"
                ],
                "summary": "List Containers",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/export/{mode}/{what}": {
            "get": {
                "produces": [
                    "application/json",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "tags": [
                    "export"
                ],
                "summary": "Export",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "dataset or logs",
                        "name": "what",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "json (default) or xlsx",
                        "name": "format",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    }
                }
            }
        },
        "/import/{kind}": {
            "post": {
                "description": "Replaces the dataset of a mode. kind is spreadsheet, json or store. The source is the multipart \"file\" field or the raw body.",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "import"
                ],
                "summary": "Import Dataset",
                "parameters": [
                    {
                        "type": "string",
                        "description": "spreadsheet, json or store",
                        "name": "kind",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Sheet name",
                        "name": "sheet",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/importer.Result"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/items/{barcode}/scanned": {
            "put": {
                "description": "Sets the absolute scanned quantity of an item and logs the difference as a manual entry. The mode defaults to the current scan mode.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "items"
                ],
                "summary": "Set Scanned Quantity",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Barcode",
                        "name": "barcode",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/inventory.Item"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Item not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/items/{mode}/recent": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "items"
                ],
                "summary": "Recent Items",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Maximum items",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/inventory.Item"
                            }
                        }
                    }
                }
            }
        },
        "/items/{mode}/{barcode}/logs": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "items"
                ],
                "summary": "Item History",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Barcode",
                        "name": "barcode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Loots container",
                        "name": "container",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/inventory.LogEntry"
                            }
                        }
                    }
                }
            }
        },
        "/mode": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "scanning"
                ],
                "summary": "Set Scan Mode",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/session.Status"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/sales/import": {
            "post": {
                "description": "Replaces the sale price table. The source is the multipart \"file\" field or the raw body.",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sales"
                ],
                "summary": "Import Sales",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Sheet name",
                        "name": "sheet",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/sales.Result"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/sales/{barcode}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sales"
                ],
                "summary": "Sale Lookup",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Barcode",
                        "name": "barcode",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/sales.Sale"
                        }
                    },
                    "404": {
                        "description": "No sale for this barcode",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/scans": {
            "post": {
                "description": "Queues raw barcode reads for the scan pipeline. Processing is asynchronous.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "scanning"
                ],
                "summary": "Queue Scans",
                "responses": {
                    "202": {
                        "description": "Queued count",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/stats/{mode}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "items"
                ],
                "summary": "Inventory Statistics",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/inventory.Stats"
                        }
                    }
                }
            }
        },
        "/status": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "scanning"
                ],
                "summary": "Session Status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/session.Status"
                        }
                    }
                }
            }
        },
        "/sync/employees": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sync"
                ],
                "summary": "Remote Employees",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Session id",
                        "name": "session",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/remote.Employee"
                            }
                        }
                    }
                }
            }
        },
        "/sync/{mode}/download": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sync"
                ],
                "summary": "Download Session Data",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Session id",
                        "name": "session",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Employee id",
                        "name": "employee",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/importer.Result"
                        }
                    }
                }
            }
        },
        "/sync/{mode}/upload": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "sync"
                ],
                "summary": "Upload Counts",
                "parameters": [
                    {
                        "type": "string",
                        "description": "standard or loots",
                        "name": "mode",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Session id",
                        "name": "session",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Employee id",
                        "name": "employee",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/remote.UploadResult"
                        }
                    },
                    "409": {
                        "description": "Rejected by the service",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "502": {
                        "description": "Service unreachable",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "archive.Object": {
            "type": "object",
            "properties": {
                "key": {
                    "type": "string"
                },
                "size": {
                    "type": "integer"
                },
                "lastModified": {
                    "type": "string"
                }
            }
        },
        "importer.Result": {
            "type": "object",
            "properties": {
                "mode": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "imported": {
                    "type": "integer"
                },
                "skipped": {
                    "type": "integer"
                },
                "duplicates": {
                    "type": "integer"
                }
            }
        },
        "inventory.Item": {
            "type": "object",
            "properties": {
                "mode": {
                    "type": "string"
                },
                "barcode": {
                    "type": "string"
                },
                "containerId": {
                    "type": "string"
                },
                "expectedQuantity": {
                    "type": "number"
                },
                "scannedQuantity": {
                    "type": "number"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "unitOfMeasure": {
                    "type": "string"
                },
                "location": {
                    "type": "string"
                },
                "comparePrice": {
                    "type": "number"
                },
                "salePrice": {
                    "type": "number"
                },
                "variants": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "employeeIds": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "productId": {
                    "type": "integer"
                }
            }
        },
        "inventory.LogEntry": {
            "type": "object",
            "properties": {
                "mode": {
                    "type": "string"
                },
                "barcode": {
                    "type": "string"
                },
                "containerId": {
                    "type": "string"
                },
                "previousValue": {
                    "type": "number"
                },
                "delta": {
                    "type": "number"
                },
                "resultingValue": {
                    "type": "number"
                },
                "timestamp": {
                    "type": "string"
                },
                "isManual": {
                    "type": "boolean"
                },
                "section": {
                    "type": "string"
                },
                "productId": {
                    "type": "integer"
                }
            }
        },
        "inventory.Stats": {
            "type": "object",
            "properties": {
                "mode": {
                    "type": "string"
                },
                "totalExpected": {
                    "type": "number"
                },
                "totalScanned": {
                    "type": "number"
                },
                "totalBarcodes": {
                    "type": "integer"
                },
                "scannedBarcodes": {
                    "type": "integer"
                }
            }
        },
        "remote.Employee": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "name": {
                    "type": "string"
                }
            }
        },
        "remote.UploadResult": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "error": {
                    "type": "string"
                },
                "updated": {
                    "type": "integer"
                }
            }
        },
        "sales.Result": {
            "type": "object",
            "properties": {
                "imported": {
                    "type": "integer"
                },
                "skipped": {
                    "type": "integer"
                },
                "duplicates": {
                    "type": "integer"
                }
            }
        },
        "sales.Sale": {
            "type": "object",
            "properties": {
                "barcode": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "color": {
                    "type": "string"
                },
                "size": {
                    "type": "string"
                },
                "saleType": {
                    "type": "string"
                },
                "oldPrice": {
                    "type": "string"
                },
                "newPrice": {
                    "type": "string"
                },
                "articleCode": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                }
            }
        },
        "session.Status": {
            "type": "object",
            "properties": {
                "mode": {
                    "type": "string"
                },
                "container": {
                    "type": "string"
                },
                "counters": {
                    "type": "object"
                },
                "pendingLogs": {
                    "type": "integer"
                },
                "last": {
                    "type": "object"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Scanmate API",
	Description:      "Device API of the handheld inventory reconciliation engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
