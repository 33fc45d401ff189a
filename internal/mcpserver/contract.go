package mcpserver

// AITodoContract describes the AI To-Do remark tag convention for LLM
// consumers that queue work over MCP.
const AITodoContract = `# AI To-Do Tag Format

An AI To-Do is a task remark that carries the tag

    [ai-todo|<status>]

anywhere in its body. The text around the tag is the instruction the model
executes against the task.

## Statuses

| Status  | Meaning                                        |
|---------|------------------------------------------------|
| queued  | waiting for the executor to pick it up         |
| running | the executor is calling the model right now    |
| done    | finished; the result was appended as a remark  |
| failed  | the model call failed; see the result remark   |

## Rules

1. Queue work by writing a remark containing ` + "`[ai-todo|queued]`" + ` plus the
   instruction, e.g. ` + "`[ai-todo|queued] draft a release announcement`" + `.
2. Only the executor advances the status; never write running/done/failed
   yourself.
3. One tag per remark. Extra tags in the same remark are ignored.
4. The executor appends its output as a new remark authored by "ai" and then
   settles the original tag as done or failed.

## Example

Remark queued by a client:

    [ai-todo|queued] summarize the discussion so far and list open questions

After execution the original remark reads ` + "`[ai-todo|done] ...`" + ` and a new
remark holds the model's markdown output.
`
